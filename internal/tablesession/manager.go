package tablesession

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/cache"
	"holdem-server/internal/directory"
	"holdem-server/internal/hand"
	"holdem-server/internal/ledger"
)

// Deps is everything a table session needs from the outside.
type Deps struct {
	Cache     cache.Gateway
	Ledger    *ledger.Ledger
	Directory directory.Client
	Notifier  Notifier
	Cfg       Config
}

// Manager is the process-wide table registry. Operations on different
// tables proceed in parallel; the manager lock only guards the map.
type Manager struct {
	deps Deps

	mu     sync.Mutex
	tables map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:   deps,
		tables: map[string]*Session{},
	}
}

func (m *Manager) lock()   { m.mu.Lock() }
func (m *Manager) unlock() { m.mu.Unlock() }

// SeatRequest is the seat-player payload from the administrative
// endpoint.
type SeatRequest struct {
	TableID        string `json:"tableId"`
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	Stack          int64  `json:"stack"`
	SeatNumber     int    `json:"seatNumber"`
	CommunityID    string `json:"communityId,omitempty"`
	TableName      string `json:"tableName,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// SeatPlayer finds or creates the table and seats (or queues) the user.
func (m *Manager) SeatPlayer(ctx context.Context, req SeatRequest) (SeatResult, error) {
	if req.TableID == "" || req.UserID == "" {
		return SeatResult{}, apperrors.New(apperrors.InvalidAction, "tableId and userId are required")
	}
	sess := m.getOrCreate(ctx, req.TableID, req.TableName)
	return sess.SeatPlayer(ctx, req.UserID, req.Username, req.SeatNumber, req.Stack, req.CommunityID, req.TimeoutSeconds)
}

// getOrCreate returns the live session for a table, restoring its hand
// from the cache if a previous process persisted one.
func (m *Manager) getOrCreate(ctx context.Context, tableID, name string) *Session {
	m.lock()
	defer m.unlock()
	if sess, ok := m.tables[tableID]; ok {
		return sess
	}
	sess := newSession(tableID, m.deps)
	sess.Name = name
	if name == "" {
		sess.Name = tableID
	}
	sess.onEmpty = m.remove

	if data, err := m.deps.Cache.Load(ctx, cache.HandKey(tableID)); err == nil {
		if restored, rerr := hand.UnmarshalState(data); rerr == nil {
			sess.hand = restored
			for _, st := range restored.Seats {
				if st != nil {
					sess.seated[st.ID] = true
					sess.userSeat[st.ID] = st.Index
				}
			}
			log.Info().Str("table_id", tableID).Str("stage", string(restored.Stage)).Msg("hand restored from cache")
			defer sess.resumeTimers()
		} else {
			log.Error().Err(rerr).Str("table_id", tableID).Msg("cached hand state unreadable, starting fresh")
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Err(err).Str("table_id", tableID).Msg("cache load failed")
	}

	if tc, err := m.deps.Directory.GetTableConfig(ctx, tableID); err == nil {
		sess.Permanent = tc.Permanent
		if tc.ActionTimeoutSeconds > 0 {
			sess.cfg.DefaultActionTimeoutSec = tc.ActionTimeoutSeconds
		}
	}

	m.tables[tableID] = sess
	return sess
}

// Get returns a live session by table ID.
func (m *Manager) Get(tableID string) (*Session, bool) {
	m.lock()
	defer m.unlock()
	sess, ok := m.tables[tableID]
	return sess, ok
}

// FindByUser returns the session hosting a seated user, if any.
func (m *Manager) FindByUser(userID string) (*Session, bool) {
	m.lock()
	sessions := make([]*Session, 0, len(m.tables))
	for _, sess := range m.tables {
		sessions = append(sessions, sess)
	}
	m.unlock()
	for _, sess := range sessions {
		if sess.HostsUser(userID) {
			return sess, true
		}
	}
	return nil, false
}

// HandleConnect marks the user connected on every table hosting them.
// Returns the table IDs affected.
func (m *Manager) HandleConnect(userID, socketID string) []string {
	m.lock()
	sessions := make([]*Session, 0, len(m.tables))
	for _, sess := range m.tables {
		sessions = append(sessions, sess)
	}
	m.unlock()
	var tables []string
	for _, sess := range sessions {
		if sess.MarkConnected(userID, socketID) {
			tables = append(tables, sess.TableID)
		}
	}
	return tables
}

// HandleDisconnect marks the user disconnected everywhere.
func (m *Manager) HandleDisconnect(userID, socketID string) {
	m.lock()
	sessions := make([]*Session, 0, len(m.tables))
	for _, sess := range m.tables {
		sessions = append(sessions, sess)
	}
	m.unlock()
	for _, sess := range sessions {
		sess.MarkDisconnected(userID, socketID)
	}
}

func (m *Manager) remove(tableID string) {
	m.lock()
	delete(m.tables, tableID)
	m.unlock()
}

// Len reports how many tables are live.
func (m *Manager) Len() int {
	m.lock()
	defer m.unlock()
	return len(m.tables)
}
