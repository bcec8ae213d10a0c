package tablesession

import (
	"holdem-server/internal/hand"
	"holdem-server/internal/seat"
)

// Outbound event names, shared with the client gateway.
const (
	EvtConnected          = "connected"
	EvtTableState         = "table_state_update"
	EvtActionError        = "action_error"
	EvtChatMessage        = "chat_message"
	EvtChatHistory        = "chat_history"
	EvtPlayerDisconnected = "player_disconnected"
	EvtPlayerReconnected  = "player_reconnected"
	EvtReconnected        = "reconnected"
	EvtActionTimeout      = "action_timeout"
	EvtError              = "error"
)

// Notifier delivers an event to a single user's live socket, if any.
// Implementations must not block: the session layer may call Send while
// holding no lock but in the broadcast hot path.
type Notifier interface {
	Send(userID, event string, payload any)
}

// TableStateView is the personalized snapshot broadcast on every state
// transition. Only the receiving user's hole cards appear; every other
// seat shows a hole-card count.
type TableStateView struct {
	TableID           string            `json:"table_id"`
	Stage             string            `json:"stage"`
	Pot               int64             `json:"pot"`
	Community         []string          `json:"community"`
	CurrentSeat       int               `json:"current_seat"`
	CurrentBetToMatch int64             `json:"current_bet_to_match"`
	DealerIdx         int               `json:"dealer_idx"`
	SmallBlindIdx     int               `json:"small_blind_idx"`
	BigBlindIdx       int               `json:"big_blind_idx"`
	ActionDeadlineMS  int64             `json:"action_deadline_ms,omitempty"`
	Seats             []seat.PublicView `json:"seats"`
	Me                *seat.PrivateView `json:"me,omitempty"`
	HandStarted       bool              `json:"hand_started"`
}

// buildStateView renders the hand for one user. Callers hold the table
// lock.
func buildStateView(tableID string, h *hand.Hand, started bool, userID string) TableStateView {
	view := TableStateView{
		TableID:           tableID,
		Stage:             string(h.Stage),
		Pot:               h.Pot,
		CurrentSeat:       -1,
		CurrentBetToMatch: h.CurrentBetToMatch,
		DealerIdx:         h.DealerIdx,
		SmallBlindIdx:     h.SmallBlindIdx,
		BigBlindIdx:       h.BigBlindIdx,
		HandStarted:       started,
	}
	switch h.Stage {
	case hand.StagePreflop, hand.StageFlop, hand.StageTurn, hand.StageRiver:
		view.CurrentSeat = h.CurrentSeat
		if !h.ActionDeadline.IsZero() {
			view.ActionDeadlineMS = h.ActionDeadline.UnixMilli()
		}
	}
	view.Community = make([]string, len(h.Community))
	for i, c := range h.Community {
		view.Community[i] = c.Code()
	}
	for _, s := range h.Seats {
		if s == nil {
			continue
		}
		view.Seats = append(view.Seats, s.Public())
		if s.ID == userID {
			private := s.Private()
			view.Me = &private
		}
	}
	return view
}

// outMsg is one pending outbound event, produced under the table lock
// and flushed after release.
type outMsg struct {
	userID  string
	event   string
	payload any
}
