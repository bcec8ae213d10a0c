package tablesession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/cache"
	"holdem-server/internal/directory"
	"holdem-server/internal/hand"
	"holdem-server/internal/ledger"
)

type recordedEvent struct {
	UserID  string
	Event   string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Send(userID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{UserID: userID, Event: event, Payload: payload})
}

func (n *recordingNotifier) count(userID, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if (userID == "" || e.UserID == userID) && e.Event == event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) waitFor(t *testing.T, userID, event string, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if n.count(userID, event) > 0 {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

type testEnv struct {
	manager  *Manager
	cache    *cache.MemoryGateway
	dir      *directory.LocalClient
	notifier *recordingNotifier
}

func newTestEnv(cfg Config) *testEnv {
	mem := cache.NewMemory()
	dir := directory.NewLocal("test-secret")
	notifier := &recordingNotifier{}
	mgr := NewManager(Deps{
		Cache:     mem,
		Ledger:    ledger.New(dir),
		Directory: dir,
		Notifier:  notifier,
		Cfg:       cfg,
	})
	return &testEnv{manager: mgr, cache: mem, dir: dir, notifier: notifier}
}

func seatTwo(t *testing.T, env *testEnv, tableID string, timeoutSeconds int) *Session {
	t.Helper()
	ctx := context.Background()
	for i, userID := range []string{"alice", "bob"} {
		_, err := env.manager.SeatPlayer(ctx, SeatRequest{
			TableID:        tableID,
			UserID:         userID,
			Username:       userID,
			Stack:          1000,
			SeatNumber:     i + 1,
			TimeoutSeconds: timeoutSeconds,
		})
		if err != nil {
			t.Fatalf("seat %s: %v", userID, err)
		}
	}
	sess, ok := env.manager.Get(tableID)
	if !ok {
		t.Fatal("session missing after seating")
	}
	return sess
}

func TestHandStartsWhenTwoSeatedAndConnected(t *testing.T) {
	env := newTestEnv(Config{})
	sess := seatTwo(t, env, "t1", 0)

	sess.MarkConnected("alice", "s-a")
	if sess.started {
		t.Fatal("hand must not start with one connection")
	}
	sess.MarkConnected("bob", "s-b")

	sess.mu.Lock()
	stage := sess.hand.Stage
	started := sess.started
	sess.mu.Unlock()
	if !started || stage != hand.StagePreflop {
		t.Fatalf("started=%v stage=%v, want preflop hand", started, stage)
	}
	if env.notifier.count("alice", EvtTableState) == 0 || env.notifier.count("bob", EvtTableState) == 0 {
		t.Fatal("both seats must receive a state broadcast")
	}
	if ok, _ := env.cache.Exists(context.Background(), cache.HandKey("t1")); !ok {
		t.Fatal("hand state must be persisted on start")
	}
}

func TestSeatPlayerCapacityErrors(t *testing.T) {
	env := newTestEnv(Config{MaxSeats: 2, MaxQueue: 1})
	ctx := context.Background()
	seatTwo(t, env, "t1", 0)

	_, err := env.manager.SeatPlayer(ctx, SeatRequest{TableID: "t1", UserID: "alice", Username: "alice", Stack: 500, SeatNumber: 1})
	if !errors.Is(err, apperrors.ErrCapacity) {
		t.Fatalf("duplicate seat err = %v, want Capacity", err)
	}

	res, err := env.manager.SeatPlayer(ctx, SeatRequest{TableID: "t1", UserID: "carol", Username: "carol", Stack: 500, SeatNumber: 1})
	if err != nil {
		t.Fatalf("queueing on a full table: %v", err)
	}
	if !res.Queued {
		t.Fatal("third player on a 2-seat table must be queued")
	}

	_, err = env.manager.SeatPlayer(ctx, SeatRequest{TableID: "t1", UserID: "dave", Username: "dave", Stack: 500, SeatNumber: 1})
	if !errors.Is(err, apperrors.ErrCapacity) {
		t.Fatalf("overflow past the waitlist err = %v, want Capacity", err)
	}
}

func TestSubmitActionRejectsOutOfTurn(t *testing.T) {
	env := newTestEnv(Config{})
	sess := seatTwo(t, env, "t1", 0)
	sess.MarkConnected("alice", "s-a")
	sess.MarkConnected("bob", "s-b")

	sess.mu.Lock()
	current := sess.hand.Seats[sess.hand.CurrentSeat].ID
	sess.mu.Unlock()
	wrong := "alice"
	if current == "alice" {
		wrong = "bob"
	}

	err := sess.SubmitAction(context.Background(), wrong, hand.ActionCheck, 0)
	if !errors.Is(err, apperrors.ErrInvalidAction) {
		t.Fatalf("err = %v, want InvalidAction", err)
	}
}

func TestSubmitActionPersistsAndBroadcasts(t *testing.T) {
	env := newTestEnv(Config{})
	sess := seatTwo(t, env, "t1", 0)
	sess.MarkConnected("alice", "s-a")
	sess.MarkConnected("bob", "s-b")

	sess.mu.Lock()
	current := sess.hand.Seats[sess.hand.CurrentSeat].ID
	sess.mu.Unlock()

	before := env.notifier.count(current, EvtTableState)
	if err := sess.SubmitAction(context.Background(), current, hand.ActionCall, 0); err != nil {
		t.Fatalf("call: %v", err)
	}
	if env.notifier.count(current, EvtTableState) <= before {
		t.Fatal("action must trigger a state broadcast")
	}

	data, err := env.cache.Load(context.Background(), cache.HandKey("t1"))
	if err != nil {
		t.Fatalf("load persisted state: %v", err)
	}
	restored, err := hand.UnmarshalState(data)
	if err != nil {
		t.Fatalf("restore persisted state: %v", err)
	}
	sess.mu.Lock()
	pot := sess.hand.Pot
	sess.mu.Unlock()
	if restored.Pot != pot {
		t.Fatalf("persisted pot = %d, live pot = %d", restored.Pot, pot)
	}
}

func TestTimeoutAutoCheckAdvancesStreet(t *testing.T) {
	env := newTestEnv(Config{})
	sess := seatTwo(t, env, "t1", 1)
	sess.MarkConnected("alice", "s-a")
	sess.MarkConnected("bob", "s-b")

	// Small blind completes; big blind then faces a checkable spot and
	// is left to time out.
	sess.mu.Lock()
	sbUser := sess.hand.Seats[sess.hand.SmallBlindIdx].ID
	sess.mu.Unlock()
	if err := sess.SubmitAction(context.Background(), sbUser, hand.ActionCall, 0); err != nil {
		t.Fatalf("sb call: %v", err)
	}

	if !env.notifier.waitFor(t, "", EvtActionTimeout, 3*time.Second) {
		t.Fatal("expected an action_timeout broadcast")
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sess.mu.Lock()
		stage := sess.hand.Stage
		sess.mu.Unlock()
		if stage == hand.StageFlop {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("stage did not advance to flop after timeout auto-check")
}

func TestReconnectWithinGraceRestoresSnapshotAndChat(t *testing.T) {
	env := newTestEnv(Config{ReconnectGrace: time.Minute})
	sess := seatTwo(t, env, "t1", 0)
	sess.MarkConnected("alice", "s-a")
	sess.MarkConnected("bob", "s-b")

	sess.SubmitChat("alice", "glhf")
	sess.SubmitChat("bob", "u2")

	sess.MarkDisconnected("bob", "s-b")
	if env.notifier.count("alice", EvtPlayerDisconnected) == 0 {
		t.Fatal("room must hear player_disconnected")
	}
	if !sess.HasDisconnectRecord("bob") {
		t.Fatal("disconnect record missing")
	}

	if ok := sess.MarkConnected("bob", "s-b2"); !ok {
		t.Fatal("reconnect refused")
	}
	if sess.HasDisconnectRecord("bob") {
		t.Fatal("disconnect record must clear on reconnect")
	}
	if env.notifier.count("bob", EvtReconnected) == 0 {
		t.Fatal("reconnecting client must receive its snapshot")
	}
	if env.notifier.count("bob", EvtChatHistory) == 0 {
		t.Fatal("reconnecting client must receive chat history")
	}
	if env.notifier.count("alice", EvtPlayerReconnected) == 0 {
		t.Fatal("room must hear player_reconnected")
	}
}

func TestGraceExpiryEvictsSeatWithPayout(t *testing.T) {
	env := newTestEnv(Config{ReconnectGrace: 50 * time.Millisecond})
	sess := seatTwo(t, env, "t1", 0)
	sess.MarkConnected("alice", "s-a")

	// No hand running (only one connection), so eviction is immediate
	// at grace expiry.
	sess.MarkDisconnected("alice", "s-a")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !sess.HostsUser("alice") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if sess.HostsUser("alice") {
		t.Fatal("seat not evicted after grace expiry")
	}
	// Payout and unseat intents are reported asynchronously.
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(env.dir.Unseated()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := env.dir.Unseated(); len(got) == 0 || got[0] != "t1/alice" {
		t.Fatalf("unseat reports = %v, want [t1/alice]", got)
	}
	if bal := env.dir.Balance("alice"); bal != 0 {
		t.Fatalf("net wallet movement = %d, want 0 (buy-in debit then payout credit)", bal)
	}
}

func TestLeaveEmptiesTableAndDeletesCache(t *testing.T) {
	env := newTestEnv(Config{})
	sess := seatTwo(t, env, "t1", 0)

	if err := sess.Leave("alice"); err != nil {
		t.Fatalf("leave alice: %v", err)
	}
	if err := sess.Leave("bob"); err != nil {
		t.Fatalf("leave bob: %v", err)
	}
	if env.manager.Len() != 0 {
		t.Fatalf("manager still tracks %d tables", env.manager.Len())
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := env.cache.Exists(context.Background(), cache.HandKey("t1")); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("cache entry not deleted after the table emptied")
}

func TestChatRingCapsHistory(t *testing.T) {
	r := NewChatRing()
	now := time.Unix(1000, 0)
	for i := 0; i < ChatCapacity+20; i++ {
		r.Append("u", "u", "msg", now)
	}
	if r.Len() != ChatCapacity {
		t.Fatalf("len = %d, want %d", r.Len(), ChatCapacity)
	}
}

func TestBlindPositionJoinRuleMidHand(t *testing.T) {
	env := newTestEnv(Config{MaxSeats: 4})
	sess := seatTwo(t, env, "t1", 0)
	sess.MarkConnected("alice", "s-a")
	sess.MarkConnected("bob", "s-b")

	// Hand is running; a third player may always take a free seat but
	// never plays the hand in progress.
	res, err := env.manager.SeatPlayer(context.Background(), SeatRequest{
		TableID: "t1", UserID: "carol", Username: "carol", Stack: 1000, SeatNumber: 3,
	})
	if err != nil {
		t.Fatalf("mid-hand seat: %v", err)
	}
	if res.PlayersCount != 3 {
		t.Fatalf("playersCount = %d, want 3", res.PlayersCount)
	}
	sess.mu.Lock()
	joined := sess.hand.SeatByID("carol")
	active := joined != nil && joined.ActiveInHand
	sess.mu.Unlock()
	if joined == nil {
		t.Fatal("carol has no seat")
	}
	if active {
		t.Fatal("a mid-hand joiner must be inactive until the next hand")
	}
}

func TestRestoreFromCacheOnManagerRecreate(t *testing.T) {
	env := newTestEnv(Config{})
	sess := seatTwo(t, env, "t1", 0)
	sess.MarkConnected("alice", "s-a")
	sess.MarkConnected("bob", "s-b")

	// A second manager sharing the cache sees the persisted hand.
	mgr2 := NewManager(Deps{
		Cache:     env.cache,
		Ledger:    ledger.New(env.dir),
		Directory: env.dir,
		Notifier:  env.notifier,
		Cfg:       Config{},
	})
	sess2 := mgr2.getOrCreate(context.Background(), "t1", "")
	if !sess2.HostsUser("alice") || !sess2.HostsUser("bob") {
		t.Fatal("restored session must re-seat persisted users")
	}
	sess2.mu.Lock()
	stage := sess2.hand.Stage
	sess2.mu.Unlock()
	if stage != hand.StagePreflop {
		t.Fatalf("restored stage = %v, want preflop", stage)
	}
}
