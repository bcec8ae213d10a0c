package hand

import "time"

// HandleTimeout resolves an expired action deadline for the seat
// currently to act: auto-check when legal, auto-fold otherwise. The
// chosen action runs through Apply so it advances state exactly like a
// player-submitted one. Returns the action taken, plus the settlement
// if the hand ended as a result.
func (h *Hand) HandleTimeout(now time.Time) (ActionType, *Settlement, error) {
	if !isBettingStage(h.Stage) {
		return "", nil, nil
	}
	s := h.Seats[h.CurrentSeat]
	if s == nil || !s.CanAct() {
		return "", nil, nil
	}
	kind := ActionFold
	if s.CurrentRoundBet >= h.CurrentBetToMatch {
		kind = ActionCheck
	}
	// The deadline is consumed: clear it so the admission path doesn't
	// reject its own resolution.
	h.ActionDeadline = time.Time{}
	settlement, err := h.Apply(Action{SeatIndex: h.CurrentSeat, Type: kind}, now)
	return kind, settlement, err
}

// DeadlineExpired reports whether the current action deadline has
// passed as of now. Always false outside a betting stage.
func (h *Hand) DeadlineExpired(now time.Time) bool {
	return isBettingStage(h.Stage) && !h.ActionDeadline.IsZero() && now.After(h.ActionDeadline)
}
