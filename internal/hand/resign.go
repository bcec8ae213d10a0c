package hand

import "time"

// Resign folds a seat that is leaving the table, in or out of turn.
// In turn it runs through Apply like any fold; out of turn it marks the
// fold without moving the action pointer, ending the hand immediately
// if only one seat remains. Outside a betting stage it does nothing.
func (h *Hand) Resign(idx int, now time.Time) (*Settlement, error) {
	if !isBettingStage(h.Stage) {
		return nil, nil
	}
	if idx < 0 || idx >= len(h.Seats) || h.Seats[idx] == nil {
		return nil, nil
	}
	s := h.Seats[idx]
	if s.Folded || !s.ActiveInHand {
		return nil, nil
	}
	if idx == h.CurrentSeat && s.CanAct() {
		h.ActionDeadline = time.Time{}
		return h.Apply(Action{SeatIndex: idx, Type: ActionFold}, now)
	}
	s.Fold()
	h.markActed(s.ID)
	nonFolded := h.nonFoldedIndices()
	if len(nonFolded) == 1 {
		settlement := h.awardUncontested(nonFolded[0])
		return &settlement, nil
	}
	return nil, nil
}
