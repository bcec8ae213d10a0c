// Package hand implements the authoritative Texas Hold'em hand state
// machine: blinds, antes, betting rounds, street advancement, showdown,
// and serialization. A Hand owns exactly one table's cards, pot, and
// action pointer. Betting actions reach it only through Hand.Apply and
// Hand.HandleTimeout, both of which run the same admission checks;
// StartHand, AddSeat, RemoveSeat and Resign also change its state.
package hand

import (
	"time"

	"holdem-server/internal/deck"
	"holdem-server/internal/seat"
)

// Stage is where the hand currently sits in its lifecycle.
type Stage string

const (
	StageWaiting  Stage = "waiting"
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
	StageComplete Stage = "complete"
)

// ActionType is one of the admitted action kinds.
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionBet   ActionType = "bet"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "all_in"
)

// Config holds the fixed per-table rules a Hand plays under.
type Config struct {
	SmallBlind           int64
	BigBlind             int64
	InitialStack         int64
	Ante                 int64 // 0 = no ante
	ActionTimeoutSeconds int   // 0 = use DefaultActionTimeoutSeconds
}

// DefaultActionTimeoutSeconds is used when a Config doesn't specify one.
const DefaultActionTimeoutSeconds = 30

func (c Config) actionTimeout() time.Duration {
	secs := c.ActionTimeoutSeconds
	if secs <= 0 {
		secs = DefaultActionTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// Hand is the authoritative state of one hand in progress at a table.
type Hand struct {
	Config Config

	Deck      *deck.Deck
	Community []deck.Card

	Seats []*seat.Seat // fixed slice, index-stable for the life of the table

	Stage Stage
	Pot   int64

	CurrentSeat       int // index into Seats; meaningless outside a betting stage
	CurrentBetToMatch int64
	DealerIdx         int
	SmallBlindIdx     int
	BigBlindIdx       int
	LastAggressorIdx  int // -1 if none
	LastRaiseSize     int64
	ActedThisRound    map[string]bool // seat ID -> acted

	ActionDeadline time.Time

	HandsPlayed int // number of hands started by successful StartHand calls
}

// New creates a Hand in the waiting stage with the given config and
// already-seated seats (possibly empty).
func New(cfg Config, seats []*seat.Seat) *Hand {
	return &Hand{
		Config:           cfg,
		Deck:             deck.New(),
		Seats:            seats,
		Stage:            StageWaiting,
		LastAggressorIdx: -1,
		ActedThisRound:   map[string]bool{},
	}
}

// SeatByID finds a seat by user ID, or nil.
func (h *Hand) SeatByID(id string) *seat.Seat {
	for _, s := range h.Seats {
		if s != nil && s.ID == id {
			return s
		}
	}
	return nil
}

// participatingIndices returns the indices of seats that are occupied
// (non-nil) and active in the hand, in increasing seat order.
func (h *Hand) participatingIndices() []int {
	out := make([]int, 0, len(h.Seats))
	for i, s := range h.Seats {
		if s != nil && s.ActiveInHand {
			out = append(out, i)
		}
	}
	return out
}

// occupiedIndices returns indices of all non-nil seats regardless of
// active-in-hand status, in increasing seat order.
func (h *Hand) occupiedIndices() []int {
	out := make([]int, 0, len(h.Seats))
	for i, s := range h.Seats {
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}

// nonFoldedIndices returns indices of seats still in the hand (not
// folded), regardless of all-in status.
func (h *Hand) nonFoldedIndices() []int {
	out := make([]int, 0, len(h.Seats))
	for i, s := range h.Seats {
		if s != nil && s.ActiveInHand && !s.Folded {
			out = append(out, i)
		}
	}
	return out
}

// ableIndices returns indices of seats that can still act this round:
// active, not folded, not all-in.
func (h *Hand) ableIndices() []int {
	out := make([]int, 0, len(h.Seats))
	for i, s := range h.Seats {
		if s != nil && s.CanAct() {
			out = append(out, i)
		}
	}
	return out
}
