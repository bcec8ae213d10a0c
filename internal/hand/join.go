package hand

import (
	"fmt"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/seat"
)

// AddSeat admits a new seat to the table. In the waiting or complete
// stage any free position is admissible; mid-hand, the joiner is marked
// inactive and never plays the hand in progress. Every seat with chips
// is dealt in by the next StartHand. The returned bool is always true in
// the waiting or complete stage; mid-hand it reports whether the seat's
// index is where the big blind lands after this hand's dealer rotation.
func (h *Hand) AddSeat(s *seat.Seat) (bool, error) {
	idx := s.Index - 1
	if idx < 0 || idx >= len(h.Seats) {
		return false, apperrors.New(apperrors.Capacity, fmt.Sprintf("seat index %d out of range", s.Index))
	}
	if h.Seats[idx] != nil {
		return false, apperrors.New(apperrors.Capacity, fmt.Sprintf("seat %d is occupied", s.Index))
	}
	if h.SeatByID(s.ID) != nil {
		return false, apperrors.New(apperrors.Capacity, "user already seated at this table")
	}

	if h.Stage == StageWaiting || h.Stage == StageComplete {
		h.Seats[idx] = s
		return true, nil
	}

	// Hand in progress: the joiner sits out the current hand regardless.
	s.ActiveInHand = false
	h.Seats[idx] = s
	return idx == h.nextBigBlindIndex(idx), nil
}

// RemoveSeat clears a user's seat, returning the removed seat or nil if
// the user wasn't seated.
func (h *Hand) RemoveSeat(userID string) *seat.Seat {
	for i, s := range h.Seats {
		if s != nil && s.ID == userID {
			h.Seats[i] = nil
			return s
		}
	}
	return nil
}

// nextBigBlindIndex computes where the big blind will land on the next
// hand, assuming the seat at extraIdx has joined and every currently
// occupied seat plays on.
func (h *Hand) nextBigBlindIndex(extraIdx int) int {
	parts := h.occupiedIndices()
	found := false
	for _, p := range parts {
		if p == extraIdx {
			found = true
		}
	}
	if !found {
		parts = append(parts, extraIdx)
	}
	nextDealer := nextParticipatingIndex(h.DealerIdx, parts, len(h.Seats))
	if len(parts) == 2 {
		return otherOf(parts, nextDealer)
	}
	sb := nextParticipatingIndex(nextDealer, parts, len(h.Seats))
	return nextParticipatingIndex(sb, parts, len(h.Seats))
}
