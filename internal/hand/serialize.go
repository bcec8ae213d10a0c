package hand

import (
	"bytes"
	"encoding/json"
	"time"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/deck"
	"holdem-server/internal/seat"
)

// snapshot is the on-wire representation of a Hand, used by the table
// cache (keyspace hand:<tableId>) to persist and restore authoritative
// state across process restarts. Every field a Hand needs to resume
// play exactly where it left off is carried here; nothing is derived.
type snapshot struct {
	Config Config `json:"config"`

	RemainingDeck []cardJSON  `json:"remaining_deck"`
	Community     []cardJSON  `json:"community"`
	Seats         []*seatJSON `json:"seats"`

	Stage             Stage           `json:"stage"`
	Pot               int64           `json:"pot"`
	CurrentSeat       int             `json:"current_seat"`
	CurrentBetToMatch int64           `json:"current_bet_to_match"`
	DealerIdx         int             `json:"dealer_idx"`
	SmallBlindIdx     int             `json:"small_blind_idx"`
	BigBlindIdx       int             `json:"big_blind_idx"`
	LastAggressorIdx  int             `json:"last_aggressor_idx"`
	LastRaiseSize     int64           `json:"last_raise_size"`
	ActedThisRound    map[string]bool `json:"acted_this_round"`

	ActionDeadlineUnixNano int64 `json:"action_deadline_unix_nano"`
	HandsPlayed            int   `json:"hands_played"`
}

type cardJSON struct {
	Rank int `json:"rank"`
	Suit int `json:"suit"`
}

func toCardJSON(c deck.Card) cardJSON { return cardJSON{Rank: int(c.Rank), Suit: int(c.Suit)} }

func fromCardJSON(c cardJSON) deck.Card {
	return deck.Card{Rank: deck.Rank(c.Rank), Suit: deck.Suit(c.Suit)}
}

func toCardJSONs(cs []deck.Card) []cardJSON {
	out := make([]cardJSON, len(cs))
	for i, c := range cs {
		out[i] = toCardJSON(c)
	}
	return out
}

func fromCardJSONs(cs []cardJSON) []deck.Card {
	if cs == nil {
		return nil
	}
	out := make([]deck.Card, len(cs))
	for i, c := range cs {
		out[i] = fromCardJSON(c)
	}
	return out
}

type seatJSON struct {
	ID                 string     `json:"id"`
	DisplayName        string     `json:"display_name"`
	Index              int        `json:"index"`
	Stack              int64      `json:"stack"`
	CurrentRoundBet    int64      `json:"current_round_bet"`
	CumulativeRoundBet int64      `json:"cumulative_round_bet"`
	Hole               []cardJSON `json:"hole"`
	Folded             bool       `json:"folded"`
	AllIn              bool       `json:"all_in"`
	ActiveInHand       bool       `json:"active_in_hand"`
}

func toSeatJSON(s *seat.Seat) *seatJSON {
	if s == nil {
		return nil
	}
	return &seatJSON{
		ID:                 s.ID,
		DisplayName:        s.DisplayName,
		Index:              s.Index,
		Stack:              s.Stack,
		CurrentRoundBet:    s.CurrentRoundBet,
		CumulativeRoundBet: s.CumulativeRoundBet,
		Hole:               toCardJSONs(s.Hole),
		Folded:             s.Folded,
		AllIn:              s.AllIn,
		ActiveInHand:       s.ActiveInHand,
	}
}

func fromSeatJSON(sj *seatJSON) *seat.Seat {
	if sj == nil {
		return nil
	}
	s := seat.New(sj.ID, sj.DisplayName, sj.Index, sj.Stack)
	s.CurrentRoundBet = sj.CurrentRoundBet
	s.CumulativeRoundBet = sj.CumulativeRoundBet
	s.Hole = fromCardJSONs(sj.Hole)
	s.Folded = sj.Folded
	s.AllIn = sj.AllIn
	s.ActiveInHand = sj.ActiveInHand
	return s
}

// MarshalState serializes the hand to the byte form stored under
// hand:<tableId> in the cache.
func (h *Hand) MarshalState() ([]byte, error) {
	seats := make([]*seatJSON, len(h.Seats))
	for i, s := range h.Seats {
		seats[i] = toSeatJSON(s)
	}
	snap := snapshot{
		Config:            h.Config,
		RemainingDeck:     toCardJSONs(h.Deck.RemainingCards()),
		Community:         toCardJSONs(h.Community),
		Seats:             seats,
		Stage:             h.Stage,
		Pot:               h.Pot,
		CurrentSeat:       h.CurrentSeat,
		CurrentBetToMatch: h.CurrentBetToMatch,
		DealerIdx:         h.DealerIdx,
		SmallBlindIdx:     h.SmallBlindIdx,
		BigBlindIdx:       h.BigBlindIdx,
		LastAggressorIdx:  h.LastAggressorIdx,
		LastRaiseSize:     h.LastRaiseSize,
		ActedThisRound:    h.ActedThisRound,
		HandsPlayed:       h.HandsPlayed,
	}
	if !h.ActionDeadline.IsZero() {
		snap.ActionDeadlineUnixNano = h.ActionDeadline.UnixNano()
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvariantViolation, "marshal hand state", err)
	}
	return b, nil
}

// UnmarshalState reconstructs a Hand from bytes previously produced by
// MarshalState. The round trip is exact: every field that affects
// subsequent play is restored, including the remaining deck order.
// Unknown fields are a hard error, not a silent skip.
func UnmarshalState(data []byte) (*Hand, error) {
	var snap snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, apperrors.Wrap(apperrors.InvariantViolation, "unmarshal hand state", err)
	}

	seats := make([]*seat.Seat, len(snap.Seats))
	for i, sj := range snap.Seats {
		seats[i] = fromSeatJSON(sj)
	}

	h := &Hand{
		Config:            snap.Config,
		Deck:              deck.Restore(fromCardJSONs(snap.RemainingDeck)),
		Community:         fromCardJSONs(snap.Community),
		Seats:             seats,
		Stage:             snap.Stage,
		Pot:               snap.Pot,
		CurrentSeat:       snap.CurrentSeat,
		CurrentBetToMatch: snap.CurrentBetToMatch,
		DealerIdx:         snap.DealerIdx,
		SmallBlindIdx:     snap.SmallBlindIdx,
		BigBlindIdx:       snap.BigBlindIdx,
		LastAggressorIdx:  snap.LastAggressorIdx,
		LastRaiseSize:     snap.LastRaiseSize,
		ActedThisRound:    snap.ActedThisRound,
		HandsPlayed:       snap.HandsPlayed,
	}
	if h.ActedThisRound == nil {
		h.ActedThisRound = map[string]bool{}
	}
	if snap.ActionDeadlineUnixNano != 0 {
		h.ActionDeadline = time.Unix(0, snap.ActionDeadlineUnixNano)
	}
	return h, nil
}
