// Package seat implements a single player's per-hand and per-street
// chip and card state, owned and mutated only by the hand state machine
// of the owning table.
package seat

import (
	"holdem-server/internal/apperrors"
	"holdem-server/internal/deck"
)

// Seat is one occupied position at a table.
type Seat struct {
	ID          string
	DisplayName string
	Index       int // 1..N, stable seat position at the table

	Stack              int64
	CurrentRoundBet    int64
	CumulativeRoundBet int64 // total contributed this hand, across streets

	Hole []deck.Card

	Folded       bool
	AllIn        bool
	ActiveInHand bool // false for a busted or mid-hand-joined seat
}

// New creates a seat with a starting stack and no cards.
func New(id, displayName string, index int, stack int64) *Seat {
	return &Seat{
		ID:           id,
		DisplayName:  displayName,
		Index:        index,
		Stack:        stack,
		ActiveInHand: stack > 0,
	}
}

// DealHoleCards assigns the two hole cards for a new hand. Fails with
// InvariantViolation if the seat already holds cards.
func (s *Seat) DealHoleCards(c1, c2 deck.Card) error {
	if len(s.Hole) != 0 {
		return apperrors.New(apperrors.InvariantViolation, "seat already holds hole cards")
	}
	s.Hole = []deck.Card{c1, c2}
	return nil
}

// Bet wagers amount, capped at the seat's remaining stack. It returns the
// chips actually wagered and flips AllIn when the stack reaches zero.
// Negative amounts fail with InvalidInput-flavored InvalidAction.
func (s *Seat) Bet(amount int64) (int64, error) {
	if amount < 0 {
		return 0, apperrors.New(apperrors.InvalidAction, "negative bet amount")
	}
	paid := amount
	if paid > s.Stack {
		paid = s.Stack
	}
	s.Stack -= paid
	s.CurrentRoundBet += paid
	s.CumulativeRoundBet += paid
	if s.Stack == 0 {
		s.AllIn = true
	}
	return paid, nil
}

// AddChips credits the seat with n chips (pot award, buy-in, refund
// reversal). Negative n fails with InvalidAction.
func (s *Seat) AddChips(n int64) error {
	if n < 0 {
		return apperrors.New(apperrors.InvalidAction, "negative chip credit")
	}
	s.Stack += n
	if s.Stack > 0 {
		s.AllIn = false
	}
	return nil
}

// Fold marks the seat as folded and no longer active in the hand.
func (s *Seat) Fold() {
	s.Folded = true
	s.ActiveInHand = false
}

// ResetForNewStreet clears the current street's bet only; cumulative
// contribution persists across streets within the hand.
func (s *Seat) ResetForNewStreet() {
	s.CurrentRoundBet = 0
}

// ResetForNewHand clears all per-hand state. A seat whose stack is zero
// is flipped inactive until it's rebought.
func (s *Seat) ResetForNewHand() {
	s.CurrentRoundBet = 0
	s.CumulativeRoundBet = 0
	s.Hole = nil
	s.Folded = false
	s.AllIn = false
	s.ActiveInHand = s.Stack > 0
}

// CanAct reports whether the seat may still act in the current betting
// round: active in the hand, not folded, not all-in.
func (s *Seat) CanAct() bool {
	return s.ActiveInHand && !s.Folded && !s.AllIn
}

// PublicView is what every other seat (and a spectator) sees: no hole
// cards, only a count.
type PublicView struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	Index           int    `json:"index"`
	Stack           int64  `json:"stack"`
	CurrentRoundBet int64  `json:"current_round_bet"`
	Folded          bool   `json:"folded"`
	AllIn           bool   `json:"all_in"`
	ActiveInHand    bool   `json:"active_in_hand"`
	HoleCardCount   int    `json:"hole_card_count"`
}

// PrivateView is what the owning seat's client sees: includes hole
// cards.
type PrivateView struct {
	PublicView
	Hole []string `json:"hole_cards"`
}

// Public renders this seat's public view.
func (s *Seat) Public() PublicView {
	return PublicView{
		ID:              s.ID,
		DisplayName:     s.DisplayName,
		Index:           s.Index,
		Stack:           s.Stack,
		CurrentRoundBet: s.CurrentRoundBet,
		Folded:          s.Folded,
		AllIn:           s.AllIn,
		ActiveInHand:    s.ActiveInHand,
		HoleCardCount:   len(s.Hole),
	}
}

// Private renders this seat's private view, including hole cards.
func (s *Seat) Private() PrivateView {
	hole := make([]string, len(s.Hole))
	for i, c := range s.Hole {
		hole[i] = c.Code()
	}
	return PrivateView{PublicView: s.Public(), Hole: hole}
}
