package hand

import (
	"time"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/deck"
)

// StartHand runs the start-of-hand sequence: shuffle,
// reset seats, post antes and blinds, rotate the dealer, deal hole
// cards, and arm the first action deadline.
func (h *Hand) StartHand(now time.Time) error {
	participants := h.participatingIndices()
	if len(participants) < 2 {
		return apperrors.New(apperrors.InvalidAction, "need at least 2 active seats to start a hand")
	}

	h.Deck.Reset()
	h.Deck.Shuffle()
	h.Community = nil
	h.ActedThisRound = map[string]bool{}
	h.LastAggressorIdx = -1
	h.LastRaiseSize = 0
	h.Pot = 0

	for _, s := range h.Seats {
		if s != nil {
			s.ResetForNewHand()
		}
	}
	// Re-derive participants: resetting may have flipped broke seats inactive.
	participants = h.participatingIndices()
	if len(participants) < 2 {
		return apperrors.New(apperrors.InvalidAction, "need at least 2 active seats to start a hand")
	}

	if h.Config.Ante > 0 {
		for _, idx := range participants {
			s := h.Seats[idx]
			amt := h.Config.Ante
			if amt > s.Stack {
				amt = s.Stack
			}
			paid, _ := s.Bet(amt)
			h.Pot += paid
		}
	}

	h.DealerIdx = nextParticipatingIndex(h.DealerIdx, participants, len(h.Seats))

	var sbIdx, bbIdx int
	if len(participants) == 2 {
		sbIdx = h.DealerIdx
		bbIdx = otherOf(participants, sbIdx)
	} else {
		sbIdx = nextParticipatingIndex(h.DealerIdx, participants, len(h.Seats))
		bbIdx = nextParticipatingIndex(sbIdx, participants, len(h.Seats))
	}
	h.SmallBlindIdx = sbIdx
	h.BigBlindIdx = bbIdx

	sbSeat := h.Seats[sbIdx]
	sbPaid, _ := sbSeat.Bet(h.Config.SmallBlind)
	h.Pot += sbPaid
	h.ActedThisRound[sbSeat.ID] = true

	// The big blind is not pre-marked as acted: even when every seat
	// merely calls, the round stays open until the big blind has used
	// its option to check or raise.
	bbSeat := h.Seats[bbIdx]
	bbPaid, _ := bbSeat.Bet(h.Config.BigBlind)
	h.Pot += bbPaid

	h.CurrentBetToMatch = bbSeat.CurrentRoundBet

	// Deal 2 hole cards round-robin starting at the small blind: first
	// card to every seat in order, then the second card in the same order.
	order := dealOrder(sbIdx, participants, len(h.Seats))
	firstCard := make([]deck.Card, len(order))
	for i := range order {
		firstCard[i] = h.Deck.Deal()
	}
	secondCard := make([]deck.Card, len(order))
	for i := range order {
		secondCard[i] = h.Deck.Deal()
	}
	for i, idx := range order {
		if err := h.Seats[idx].DealHoleCards(firstCard[i], secondCard[i]); err != nil {
			return err
		}
	}

	h.LastRaiseSize = h.Config.BigBlind
	h.Stage = StagePreflop

	if len(participants) == 2 {
		h.CurrentSeat = sbIdx
	} else {
		h.CurrentSeat = nextParticipatingIndex(bbIdx, participants, len(h.Seats))
	}
	h.armDeadline(now)
	h.HandsPlayed++
	return nil
}

func (h *Hand) armDeadline(now time.Time) {
	h.ActionDeadline = now.Add(h.Config.actionTimeout())
}

// nextParticipatingIndex returns the first index in participants that
// is strictly after `from` in circular seat order over [0, n).
func nextParticipatingIndex(from int, participants []int, n int) int {
	if len(participants) == 0 {
		return from
	}
	for offset := 1; offset <= n; offset++ {
		cand := (from + offset) % n
		for _, p := range participants {
			if p == cand {
				return cand
			}
		}
	}
	return participants[0]
}

// otherOf returns the element of a two-element participants slice that
// isn't idx.
func otherOf(participants []int, idx int) int {
	for _, p := range participants {
		if p != idx {
			return p
		}
	}
	return idx
}

// dealOrder returns participant indices in round-robin order starting
// at `start`.
func dealOrder(start int, participants []int, n int) []int {
	out := make([]int, 0, len(participants))
	cur := start
	for i := 0; i < len(participants); i++ {
		out = append(out, cur)
		cur = nextParticipatingIndex(cur, participants, n)
	}
	return out
}
