// Package tablesession owns one logical poker table: its hand, chat
// buffer, readiness sets, reconnection records, and timers. All
// mutations for a table are serialized through the session's writer
// lock; outbound I/O other than the cache save happens after release.
package tablesession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/cache"
	"holdem-server/internal/directory"
	"holdem-server/internal/hand"
	"holdem-server/internal/ledger"
	"holdem-server/internal/seat"
)

// Default stakes for tables the directory supplies no config for.
const (
	DefaultSmallBlind = 10
	DefaultBigBlind   = 20
)

// Config is the session layer's tuning, shared by every table.
type Config struct {
	ReconnectGrace          time.Duration
	DefaultActionTimeoutSec int
	HandStartDelay          time.Duration
	MaxSeats                int
	MaxQueue                int
}

func (c Config) withDefaults() Config {
	if c.ReconnectGrace <= 0 {
		c.ReconnectGrace = time.Minute
	}
	if c.DefaultActionTimeoutSec <= 0 {
		c.DefaultActionTimeoutSec = hand.DefaultActionTimeoutSeconds
	}
	if c.HandStartDelay <= 0 {
		c.HandStartDelay = 3 * time.Second
	}
	if c.MaxSeats <= 0 {
		c.MaxSeats = 9
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 10
	}
	return c
}

// DisconnectRecord captures what a disconnected seat needs to resume:
// the personalized snapshot and chat history at the moment of
// disconnect, plus the grace deadline.
type DisconnectRecord struct {
	UserID   string
	TableID  string
	SocketID string
	Deadline time.Time
	Snapshot TableStateView
	Chat     []ChatMessage

	timer *time.Timer
}

// queuedPlayer is a waitlist entry, auto-seated at a hand boundary when
// a seat frees up.
type queuedPlayer struct {
	UserID      string
	Username    string
	BuyIn       int64
	CommunityID string
}

// Session is one table's actor state. Every exported method takes the
// writer lock; timer callbacks re-enter through the same lock and
// validate generation counters so a disarmed timer never acts.
type Session struct {
	TableID     string
	Name        string
	CommunityID string
	Permanent   bool

	mu        sync.Mutex
	hand      *hand.Hand
	handID    string
	started   bool
	seated    map[string]bool
	connected map[string]bool
	userSeat  map[string]int // userID -> seat number (1-based)

	chat         *ChatRing
	disconnects  map[string]*DisconnectRecord
	queue        []queuedPlayer
	pendingLeave map[string]bool

	actionGen     int
	actionTimer   *time.Timer
	nextHandTimer *time.Timer
	closed        bool

	cache    cache.Gateway
	ledger   *ledger.Ledger
	dir      directory.Client
	notifier Notifier
	cfg      Config
	now      func() time.Time
	onEmpty  func(tableID string)
}

func newSession(tableID string, deps Deps) *Session {
	return &Session{
		TableID:      tableID,
		seated:       map[string]bool{},
		connected:    map[string]bool{},
		userSeat:     map[string]int{},
		chat:         NewChatRing(),
		disconnects:  map[string]*DisconnectRecord{},
		pendingLeave: map[string]bool{},
		cache:        deps.Cache,
		ledger:       deps.Ledger,
		dir:          deps.Directory,
		notifier:     deps.Notifier,
		cfg:          deps.Cfg.withDefaults(),
		now:          time.Now,
		onEmpty:      func(string) {},
	}
}

// SeatResult reports the outcome of a seat-player request.
type SeatResult struct {
	GameID       string `json:"gameId"`
	PlayerID     string `json:"playerId"`
	PlayersCount int    `json:"playersCount"`
	MaxSeats     int    `json:"maxSeats"`
	Queued       bool   `json:"queued,omitempty"`
}

// SeatPlayer registers a user at a seat, creating the table's hand on
// first use. A full table places the user on the bounded waitlist
// instead. Fails with Capacity for an occupied seat, a full waitlist,
// or a duplicate user.
func (s *Session) SeatPlayer(ctx context.Context, userID, username string, seatNumber int, buyIn int64, communityID string, timeoutSeconds int) (SeatResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buyIn <= 0 {
		return SeatResult{}, apperrors.New(apperrors.InvalidAction, "buy-in must be positive")
	}
	if s.hand == nil {
		cfg := hand.Config{
			SmallBlind:           DefaultSmallBlind,
			BigBlind:             DefaultBigBlind,
			InitialStack:         buyIn,
			ActionTimeoutSeconds: s.cfg.DefaultActionTimeoutSec,
		}
		if timeoutSeconds > 0 {
			cfg.ActionTimeoutSeconds = timeoutSeconds
		}
		s.hand = hand.New(cfg, make([]*seat.Seat, s.cfg.MaxSeats))
	}
	if communityID != "" {
		s.CommunityID = communityID
	}
	if s.seated[userID] {
		return SeatResult{}, apperrors.New(apperrors.Capacity, "user already seated at this table")
	}

	if s.occupiedCountLocked() >= s.cfg.MaxSeats {
		if len(s.queue) >= s.cfg.MaxQueue {
			return SeatResult{}, apperrors.New(apperrors.Capacity, "table is full")
		}
		for _, q := range s.queue {
			if q.UserID == userID {
				return SeatResult{}, apperrors.New(apperrors.Capacity, "user already queued for this table")
			}
		}
		s.queue = append(s.queue, queuedPlayer{UserID: userID, Username: username, BuyIn: buyIn, CommunityID: communityID})
		log.Info().Str("table_id", s.TableID).Str("user_id", userID).Int("queue_len", len(s.queue)).Msg("player queued")
		return SeatResult{GameID: s.TableID, PlayerID: userID, PlayersCount: s.occupiedCountLocked(), MaxSeats: s.cfg.MaxSeats, Queued: true}, nil
	}

	if _, err := s.hand.AddSeat(seat.New(userID, username, seatNumber, buyIn)); err != nil {
		return SeatResult{}, err
	}
	s.seated[userID] = true
	s.userSeat[userID] = seatNumber

	go s.reportBuyIn(userID, buyIn)

	s.persistLocked(ctx)
	log.Info().Str("table_id", s.TableID).Str("user_id", userID).Int("seat", seatNumber).Int64("buy_in", buyIn).Msg("player seated")
	return SeatResult{GameID: s.TableID, PlayerID: userID, PlayersCount: s.occupiedCountLocked(), MaxSeats: s.cfg.MaxSeats}, nil
}

func (s *Session) reportBuyIn(userID string, buyIn int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.ledger.DebitBuyIn(ctx, userID, s.CommunityID, s.TableID, buyIn); err != nil {
		log.Error().Err(err).Str("table_id", s.TableID).Str("user_id", userID).Msg("buy-in debit intent failed")
	}
}

// MarkConnected records a live socket for a seated user. If the user
// has a pending disconnect record this is a reconnection; otherwise the
// user gets a fresh snapshot, and the hand starts once at least two
// seated users are connected.
func (s *Session) MarkConnected(userID, socketID string) bool {
	s.mu.Lock()
	if !s.seated[userID] {
		s.mu.Unlock()
		return false
	}

	if rec, ok := s.disconnects[userID]; ok {
		pending := s.reconnectLocked(userID, socketID, rec)
		s.mu.Unlock()
		s.flush(pending)
		return true
	}

	var pending []outMsg
	if !s.connected[userID] {
		s.connected[userID] = true
		log.Info().Str("table_id", s.TableID).Str("user_id", userID).Str("socket_id", socketID).Msg("player connected")
	}
	if s.hand != nil {
		pending = append(pending, outMsg{userID, EvtTableState, buildStateView(s.TableID, s.hand, s.started, userID)})
	}
	pending = append(pending, s.maybeStartHandLocked()...)
	s.mu.Unlock()
	s.flush(pending)
	return true
}

func (s *Session) reconnectLocked(userID, socketID string, rec *DisconnectRecord) []outMsg {
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(s.disconnects, userID)
	s.connected[userID] = true
	log.Info().Str("table_id", s.TableID).Str("user_id", userID).Str("socket_id", socketID).Msg("player reconnected")

	pending := []outMsg{
		{userID, EvtReconnected, map[string]any{"table_id": s.TableID, "state": rec.Snapshot}},
		{userID, EvtChatHistory, map[string]any{"messages": rec.Chat}},
	}
	if s.hand != nil {
		pending = append(pending, outMsg{userID, EvtTableState, buildStateView(s.TableID, s.hand, s.started, userID)})
	}
	name := s.displayNameLocked(userID)
	pending = append(pending, s.roomExceptLocked(userID, EvtPlayerReconnected, map[string]any{"name": name})...)
	return pending
}

// Reconnect restores a user within the grace window under a new
// socket. Returns false when no disconnect record exists.
func (s *Session) Reconnect(userID, socketID string) bool {
	s.mu.Lock()
	rec, ok := s.disconnects[userID]
	if !ok || !s.seated[userID] {
		s.mu.Unlock()
		return false
	}
	pending := s.reconnectLocked(userID, socketID, rec)
	s.mu.Unlock()
	s.flush(pending)
	return true
}

// MarkDisconnected records a dropped socket for a seated user, arms the
// reconnect-grace timer, and tells the room. Hand state is untouched.
func (s *Session) MarkDisconnected(userID, socketID string) {
	s.mu.Lock()
	if !s.connected[userID] {
		s.mu.Unlock()
		return
	}
	delete(s.connected, userID)

	now := s.now()
	rec := &DisconnectRecord{
		UserID:   userID,
		TableID:  s.TableID,
		SocketID: socketID,
		Deadline: now.Add(s.cfg.ReconnectGrace),
		Chat:     s.chat.History(),
	}
	if s.hand != nil {
		rec.Snapshot = buildStateView(s.TableID, s.hand, s.started, userID)
	}
	rec.timer = time.AfterFunc(s.cfg.ReconnectGrace, func() { s.onGraceExpiry(userID) })
	s.disconnects[userID] = rec

	name := s.displayNameLocked(userID)
	pending := s.roomExceptLocked(userID, EvtPlayerDisconnected, map[string]any{
		"name":     name,
		"grace_ms": s.cfg.ReconnectGrace.Milliseconds(),
	})
	log.Info().Str("table_id", s.TableID).Str("user_id", userID).Time("deadline", rec.Deadline).Msg("player disconnected")
	s.mu.Unlock()
	s.flush(pending)
}

// onGraceExpiry evicts a seat whose reconnect window lapsed: fold it
// out of the running hand, report intents, and remove it at the hand
// boundary (immediately if no hand is running).
func (s *Session) onGraceExpiry(userID string) {
	s.mu.Lock()
	rec, ok := s.disconnects[userID]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	if s.now().Before(rec.Deadline) {
		s.mu.Unlock()
		return
	}
	delete(s.disconnects, userID)
	log.Info().Str("table_id", s.TableID).Str("user_id", userID).Msg("reconnect grace expired, evicting seat")
	pending := s.departLocked(userID)
	s.mu.Unlock()
	s.flush(pending)
}

// Leave removes a user voluntarily: payout intent for the remaining
// stack, unseat report, and (mid-hand) a resignation fold with removal
// deferred to the hand boundary so pot accounting stays intact.
func (s *Session) Leave(userID string) error {
	s.mu.Lock()
	if !s.seated[userID] {
		s.mu.Unlock()
		return apperrors.New(apperrors.NotFound, "user is not seated at this table")
	}
	if rec, ok := s.disconnects[userID]; ok {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(s.disconnects, userID)
	}
	pending := s.departLocked(userID)
	s.mu.Unlock()
	s.flush(pending)
	return nil
}

// departLocked is the shared exit path for voluntary leave and grace
// eviction.
func (s *Session) departLocked(userID string) []outMsg {
	delete(s.connected, userID)

	var pending []outMsg
	if s.hand != nil {
		if idx, ok := s.seatIndexLocked(userID); ok {
			settlement, err := s.hand.Resign(idx, s.now())
			if err != nil {
				log.Error().Err(err).Str("table_id", s.TableID).Str("user_id", userID).Msg("resign failed")
			}
			if settlement != nil {
				pending = append(pending, s.completeHandLocked(settlement)...)
			}
		}
	}

	if s.midHandLocked() {
		// Seat removal waits for the boundary; the fold above already
		// took the seat out of contention.
		s.pendingLeave[userID] = true
		return append(pending, s.broadcastStateLocked()...)
	}
	return append(pending, s.removeSeatLocked(userID)...)
}

func (s *Session) midHandLocked() bool {
	if s.hand == nil {
		return false
	}
	switch s.hand.Stage {
	case hand.StagePreflop, hand.StageFlop, hand.StageTurn, hand.StageRiver, hand.StageShowdown:
		return true
	default:
		return false
	}
}

// removeSeatLocked finishes a departure: reports intents, frees the
// seat, admits the waitlist, and tears the table down when it empties.
func (s *Session) removeSeatLocked(userID string) []outMsg {
	delete(s.seated, userID)
	delete(s.connected, userID)
	delete(s.userSeat, userID)
	delete(s.pendingLeave, userID)

	var stack int64
	if s.hand != nil {
		if removed := s.hand.RemoveSeat(userID); removed != nil {
			stack = removed.Stack
		}
	}
	go s.reportDeparture(userID, stack)

	pending := s.admitQueueLocked()
	if s.occupiedCountLocked() == 0 {
		s.teardownLocked()
		return pending
	}
	s.persistLocked(context.Background())
	return append(pending, s.broadcastStateLocked()...)
}

func (s *Session) reportDeparture(userID string, stack int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stack > 0 {
		if _, err := s.ledger.CreditPayout(ctx, userID, s.CommunityID, s.TableID, stack); err != nil {
			log.Error().Err(err).Str("table_id", s.TableID).Str("user_id", userID).Msg("payout credit intent failed")
		}
	}
	if err := s.dir.UnseatPlayer(ctx, s.TableID, userID); err != nil {
		log.Error().Err(err).Str("table_id", s.TableID).Str("user_id", userID).Msg("unseat report failed")
	}
}

// teardownLocked runs when the last seat empties: the cached hand is
// deleted (unless the table is permanent) and cleanup is signalled.
func (s *Session) teardownLocked() {
	s.closed = true
	s.disarmActionTimerLocked()
	if s.nextHandTimer != nil {
		s.nextHandTimer.Stop()
	}
	tableID, permanent := s.TableID, s.Permanent
	dir, cg := s.dir, s.cache
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if !permanent {
			if err := cg.Delete(ctx, cache.HandKey(tableID)); err != nil {
				log.Error().Err(err).Str("table_id", tableID).Msg("cache delete failed")
			}
		}
		if _, err := dir.CheckCleanup(ctx, tableID); err != nil {
			log.Error().Err(err).Str("table_id", tableID).Msg("cleanup check failed")
		}
	}()
	log.Info().Str("table_id", s.TableID).Bool("permanent", s.Permanent).Msg("table emptied")
	s.onEmpty(s.TableID)
}

// admitQueueLocked seats waitlisted players into free seats, lowest
// seat number first. Only runs at hand boundaries or on an idle table.
func (s *Session) admitQueueLocked() []outMsg {
	var pending []outMsg
	for len(s.queue) > 0 && s.occupiedCountLocked() < s.cfg.MaxSeats {
		q := s.queue[0]
		seatNumber, ok := s.freeSeatNumberLocked()
		if !ok {
			break
		}
		s.queue = s.queue[1:]
		if _, err := s.hand.AddSeat(seat.New(q.UserID, q.Username, seatNumber, q.BuyIn)); err != nil {
			log.Error().Err(err).Str("table_id", s.TableID).Str("user_id", q.UserID).Msg("auto-seat from queue failed")
			continue
		}
		s.seated[q.UserID] = true
		s.userSeat[q.UserID] = seatNumber
		go s.reportBuyIn(q.UserID, q.BuyIn)
		log.Info().Str("table_id", s.TableID).Str("user_id", q.UserID).Int("seat", seatNumber).Msg("auto-seated from queue")
	}
	return pending
}

func (s *Session) freeSeatNumberLocked() (int, bool) {
	for i, st := range s.hand.Seats {
		if st == nil {
			return i + 1, true
		}
	}
	return 0, false
}

// SubmitChat appends a message to the table's ring buffer and fans it
// out to the room.
func (s *Session) SubmitChat(userID, text string) {
	s.mu.Lock()
	if !s.seated[userID] {
		s.mu.Unlock()
		return
	}
	msg := s.chat.Append(userID, s.displayNameLocked(userID), text, s.now())
	pending := s.roomLocked(EvtChatMessage, msg)
	s.mu.Unlock()
	s.flush(pending)
}

// ChatHistory returns the buffered chat messages.
func (s *Session) ChatHistory() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.History()
}

// StateFor renders the personalized snapshot for one user. Fails with
// NotFound if the user isn't seated here.
func (s *Session) StateFor(userID string) (TableStateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seated[userID] || s.hand == nil {
		return TableStateView{}, apperrors.New(apperrors.NotFound, "user is not seated at this table")
	}
	return buildStateView(s.TableID, s.hand, s.started, userID), nil
}

// HostsUser reports whether the user is seated at this table.
func (s *Session) HostsUser(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seated[userID]
}

// HasDisconnectRecord reports whether a reconnect window is open for
// the user.
func (s *Session) HasDisconnectRecord(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.disconnects[userID]
	return ok
}

func (s *Session) displayNameLocked(userID string) string {
	if s.hand != nil {
		if st := s.hand.SeatByID(userID); st != nil {
			return st.DisplayName
		}
	}
	return userID
}

func (s *Session) seatIndexLocked(userID string) (int, bool) {
	if s.hand == nil {
		return 0, false
	}
	for i, st := range s.hand.Seats {
		if st != nil && st.ID == userID {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) occupiedCountLocked() int {
	if s.hand == nil {
		return 0
	}
	n := 0
	for _, st := range s.hand.Seats {
		if st != nil {
			n++
		}
	}
	return n
}

func (s *Session) readyCountLocked() int {
	n := 0
	for userID := range s.seated {
		if s.connected[userID] {
			n++
		}
	}
	return n
}

// roomLocked builds one event per connected user.
func (s *Session) roomLocked(event string, payload any) []outMsg {
	var pending []outMsg
	for userID := range s.connected {
		pending = append(pending, outMsg{userID, event, payload})
	}
	return pending
}

func (s *Session) roomExceptLocked(exceptUserID, event string, payload any) []outMsg {
	var pending []outMsg
	for userID := range s.connected {
		if userID != exceptUserID {
			pending = append(pending, outMsg{userID, event, payload})
		}
	}
	return pending
}

// broadcastStateLocked builds a personalized snapshot for every
// connected user.
func (s *Session) broadcastStateLocked() []outMsg {
	if s.hand == nil {
		return nil
	}
	var pending []outMsg
	for userID := range s.connected {
		pending = append(pending, outMsg{userID, EvtTableState, buildStateView(s.TableID, s.hand, s.started, userID)})
	}
	return pending
}

// persistLocked saves the hand under the writer lock so the cache write
// always precedes the broadcast it corresponds to.
func (s *Session) persistLocked(ctx context.Context) {
	if s.hand == nil {
		return
	}
	data, err := s.hand.MarshalState()
	if err != nil {
		log.Error().Err(err).Str("table_id", s.TableID).Msg("marshal hand state failed")
		return
	}
	if err := s.cache.Save(ctx, cache.HandKey(s.TableID), data); err != nil {
		log.Error().Err(err).Str("table_id", s.TableID).Msg("cache save failed")
	}
}

// flush delivers pending events after the writer lock is released.
func (s *Session) flush(pending []outMsg) {
	for _, m := range pending {
		s.notifier.Send(m.userID, m.event, m.payload)
	}
}

func (s *Session) describeLocked() string {
	return fmt.Sprintf("table %s (%d/%d seats, %d queued)", s.TableID, s.occupiedCountLocked(), s.cfg.MaxSeats, len(s.queue))
}
