package tablesession

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/hand"
	"holdem-server/internal/registry"
)

// maybeStartHandLocked starts a hand when the table is ready: at least
// two distinct users both seated and connected, and no hand running.
func (s *Session) maybeStartHandLocked() []outMsg {
	if s.started || s.hand == nil {
		return nil
	}
	if s.hand.Stage != hand.StageWaiting && s.hand.Stage != hand.StageComplete {
		return nil
	}
	if s.readyCountLocked() < 2 {
		return nil
	}
	return s.startHandLocked()
}

func (s *Session) startHandLocked() []outMsg {
	if err := s.hand.StartHand(s.now()); err != nil {
		log.Warn().Err(err).Str("table_id", s.TableID).Msg("hand not started")
		return nil
	}
	s.started = true
	s.handID = registry.NewID()
	s.persistLocked(context.Background())
	s.armActionTimerLocked()
	log.Info().Str("table_id", s.TableID).Str("hand_id", s.handID).Str("state", s.describeLocked()).Msg("hand_start")
	return s.broadcastStateLocked()
}

// resumeTimers re-arms the action timer for a hand restored from the
// cache mid-street; an already-lapsed deadline resolves immediately
// through the usual timeout path.
func (s *Session) resumeTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hand == nil || s.hand.ActionDeadline.IsZero() {
		return
	}
	switch s.hand.Stage {
	case hand.StagePreflop, hand.StageFlop, hand.StageTurn, hand.StageRiver:
		s.started = true
		s.armActionTimerLocked()
	}
}

// SubmitAction is the single admission funnel: every player decision,
// from the client socket or the agent HTTP endpoint, lands here under
// the table's writer lock.
func (s *Session) SubmitAction(ctx context.Context, userID string, kind hand.ActionType, amount int64) error {
	s.mu.Lock()
	if !s.seated[userID] {
		s.mu.Unlock()
		return apperrors.New(apperrors.NotFound, "user is not seated at this table")
	}
	idx, ok := s.seatIndexLocked(userID)
	if !ok {
		s.mu.Unlock()
		return apperrors.New(apperrors.NotFound, "user has no seat in the running hand")
	}

	settlement, err := s.hand.Apply(hand.Action{SeatIndex: idx, Type: kind, Amount: amount}, s.now())
	if err != nil {
		s.mu.Unlock()
		return err
	}
	log.Info().Str("table_id", s.TableID).Str("hand_id", s.handID).Str("user_id", userID).Str("action", string(kind)).Int64("amount", amount).Msg("action_applied")

	s.disarmActionTimerLocked()
	s.persistLocked(ctx)
	pending := s.broadcastStateLocked()
	if settlement != nil {
		pending = append(pending, s.completeHandLocked(settlement)...)
	} else {
		s.armActionTimerLocked()
	}
	s.mu.Unlock()
	s.flush(pending)
	return nil
}

// armActionTimerLocked schedules the auto-timeout for the seat
// currently to act. The generation counter disarms any stale firing.
func (s *Session) armActionTimerLocked() {
	s.disarmActionTimerLocked()
	if s.hand == nil || s.hand.ActionDeadline.IsZero() {
		return
	}
	// Fire just past the deadline so the expiry check never races the
	// timer's own resolution.
	wait := s.hand.ActionDeadline.Sub(s.now()) + 20*time.Millisecond
	if wait < 0 {
		wait = 0
	}
	gen := s.actionGen
	s.actionTimer = time.AfterFunc(wait, func() { s.onActionTimer(gen) })
}

func (s *Session) disarmActionTimerLocked() {
	s.actionGen++
	if s.actionTimer != nil {
		s.actionTimer.Stop()
		s.actionTimer = nil
	}
}

// onActionTimer resolves an expired action deadline through the same
// admission path as a player action: auto-check when legal, auto-fold
// otherwise.
func (s *Session) onActionTimer(gen int) {
	s.mu.Lock()
	if s.closed || gen != s.actionGen || s.hand == nil {
		s.mu.Unlock()
		return
	}
	if !s.hand.DeadlineExpired(s.now()) {
		s.mu.Unlock()
		return
	}
	seatName := ""
	if st := s.hand.Seats[s.hand.CurrentSeat]; st != nil {
		seatName = st.DisplayName
	}
	kind, settlement, err := s.hand.HandleTimeout(s.now())
	if err != nil {
		log.Error().Err(err).Str("table_id", s.TableID).Msg("timeout resolution failed")
		s.mu.Unlock()
		return
	}
	log.Info().Str("table_id", s.TableID).Str("hand_id", s.handID).Str("seat", seatName).Str("resolved_as", string(kind)).Msg("action_timeout")

	s.disarmActionTimerLocked()
	s.persistLocked(context.Background())
	pending := s.roomLocked(EvtActionTimeout, map[string]any{"seat_name": seatName, "resolved_as": string(kind)})
	pending = append(pending, s.broadcastStateLocked()...)
	if settlement != nil {
		pending = append(pending, s.completeHandLocked(settlement)...)
	} else {
		s.armActionTimerLocked()
	}
	s.mu.Unlock()
	s.flush(pending)
}

// completeHandLocked runs the hand boundary: emit the history record,
// process deferred departures, admit the waitlist, and schedule the
// next hand after a short pause.
func (s *Session) completeHandLocked(settlement *hand.Settlement) []outMsg {
	s.disarmActionTimerLocked()
	go s.emitHandHistory(s.handID)

	var pending []outMsg
	for userID := range s.pendingLeave {
		pending = append(pending, s.removeSeatLocked(userID)...)
		if s.closed {
			return pending
		}
	}
	pending = append(pending, s.admitQueueLocked()...)
	s.persistLocked(context.Background())
	pending = append(pending, s.broadcastStateLocked()...)

	if s.nextHandTimer != nil {
		s.nextHandTimer.Stop()
	}
	s.nextHandTimer = time.AfterFunc(s.cfg.HandStartDelay, s.onNextHandTimer)
	log.Info().Str("table_id", s.TableID).Str("hand_id", s.handID).Ints("winners", settlement.Winners).Bool("showdown", settlement.Showdown).Msg("hand_end")
	return pending
}

func (s *Session) onNextHandTimer() {
	s.mu.Lock()
	if s.closed || s.hand == nil || s.hand.Stage != hand.StageComplete {
		s.mu.Unlock()
		return
	}
	s.started = false
	pending := s.maybeStartHandLocked()
	s.mu.Unlock()
	s.flush(pending)
}

// emitHandHistory records the completed hand with the directory,
// best-effort: one attempt, logged and dropped on failure.
func (s *Session) emitHandHistory(handID string) {
	s.mu.Lock()
	if s.hand == nil {
		s.mu.Unlock()
		return
	}
	data, err := s.hand.MarshalState()
	name := s.Name
	communityID := s.CommunityID
	s.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Str("table_id", s.TableID).Msg("hand history marshal failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.dir.RecordHandHistory(ctx, communityID, s.TableID, name+"#"+handID, data); err != nil {
		log.Warn().Err(err).Str("table_id", s.TableID).Str("hand_id", handID).Msg("hand history dropped")
	}
}
