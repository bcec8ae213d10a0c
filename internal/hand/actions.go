package hand

import (
	"fmt"
	"time"

	"holdem-server/internal/apperrors"
)

// Action is an admitted player decision.
type Action struct {
	SeatIndex int
	Type      ActionType
	Amount    int64
}

func isBettingStage(s Stage) bool {
	switch s {
	case StagePreflop, StageFlop, StageTurn, StageRiver:
		return true
	default:
		return false
	}
}

// Apply runs one admitted action through the full admission funnel:
// turn/stage/precondition checks, the action's chip effects, round
// completion, and street advancement or showdown. It returns the
// settlement if the hand completed as a result, or nil if play
// continues. Invalid preconditions return an *apperrors.Error with Kind
// InvalidAction and leave the hand's state unchanged; an expired
// deadline returns Kind Timeout instead.
func (h *Hand) Apply(a Action, now time.Time) (*Settlement, error) {
	if !isBettingStage(h.Stage) {
		return nil, apperrors.New(apperrors.InvalidAction, "hand is not in a betting stage")
	}
	if a.SeatIndex != h.CurrentSeat {
		return nil, apperrors.New(apperrors.InvalidAction, "not your turn")
	}
	if a.SeatIndex < 0 || a.SeatIndex >= len(h.Seats) || h.Seats[a.SeatIndex] == nil {
		return nil, apperrors.New(apperrors.InvalidAction, "no seat at that index")
	}
	s := h.Seats[a.SeatIndex]
	if !s.ActiveInHand || s.Folded || s.AllIn {
		return nil, apperrors.New(apperrors.InvalidAction, "seat cannot act")
	}
	if !h.ActionDeadline.IsZero() && now.After(h.ActionDeadline) {
		return nil, apperrors.New(apperrors.Timeout, "action deadline has passed")
	}

	switch a.Type {
	case ActionFold:
		s.Fold()
		h.markActed(s.ID)
	case ActionCheck:
		if s.CurrentRoundBet < h.CurrentBetToMatch {
			return nil, apperrors.New(apperrors.InvalidAction, "cannot check, there's a bet to call")
		}
		h.markActed(s.ID)
	case ActionCall:
		if h.CurrentBetToMatch <= s.CurrentRoundBet {
			return nil, apperrors.New(apperrors.InvalidAction, "nothing to call")
		}
		need := h.CurrentBetToMatch - s.CurrentRoundBet
		paid, _ := s.Bet(need)
		h.Pot += paid
		h.markActed(s.ID)
	case ActionBet:
		if h.CurrentBetToMatch != 0 {
			return nil, apperrors.New(apperrors.InvalidAction, "cannot bet, there is already a bet")
		}
		isAllIn := a.Amount >= s.Stack
		if !isAllIn && a.Amount < h.Config.BigBlind {
			return nil, apperrors.New(apperrors.InvalidAction, fmt.Sprintf("Minimum bet is $%d", h.Config.BigBlind))
		}
		paid, _ := s.Bet(a.Amount)
		h.Pot += paid
		h.CurrentBetToMatch = s.CurrentRoundBet
		h.LastRaiseSize = s.CurrentRoundBet
		h.LastAggressorIdx = a.SeatIndex
		h.ActedThisRound = map[string]bool{s.ID: true}
	case ActionRaise:
		if h.CurrentBetToMatch == 0 {
			return nil, apperrors.New(apperrors.InvalidAction, "cannot raise, no bet to raise")
		}
		minRaise := max64(h.LastRaiseSize, h.Config.BigBlind)
		need := h.CurrentBetToMatch - s.CurrentRoundBet
		total := need + a.Amount
		isAllIn := total >= s.Stack
		if !isAllIn && a.Amount < minRaise {
			return nil, apperrors.New(apperrors.InvalidAction, fmt.Sprintf("Minimum raise is $%d", minRaise))
		}
		priorMatch := h.CurrentBetToMatch
		paid, _ := s.Bet(total)
		h.Pot += paid
		h.CurrentBetToMatch = s.CurrentRoundBet
		h.LastRaiseSize = h.CurrentBetToMatch - priorMatch
		h.LastAggressorIdx = a.SeatIndex
		h.ActedThisRound = map[string]bool{s.ID: true}
	case ActionAllIn:
		priorMatch := h.CurrentBetToMatch
		paid, _ := s.Bet(s.Stack)
		h.Pot += paid
		newRoundBet := s.CurrentRoundBet
		if newRoundBet > priorMatch {
			raiseIncrement := newRoundBet - priorMatch
			h.CurrentBetToMatch = newRoundBet
			minRaise := max64(h.LastRaiseSize, h.Config.BigBlind)
			if raiseIncrement >= minRaise {
				h.LastRaiseSize = raiseIncrement
				h.LastAggressorIdx = a.SeatIndex
				h.ActedThisRound = map[string]bool{s.ID: true}
			} else {
				h.markActed(s.ID)
			}
		} else {
			h.markActed(s.ID)
		}
	default:
		return nil, apperrors.New(apperrors.InvalidAction, "unknown action")
	}

	return h.afterAction(a.SeatIndex, now)
}

func (h *Hand) markActed(seatID string) {
	h.ActedThisRound[seatID] = true
}

// afterAction checks for an immediate fold-win, otherwise applies the
// round-completion rule and either advances currentSeat or ends the
// betting round.
func (h *Hand) afterAction(actedIdx int, now time.Time) (*Settlement, error) {
	nonFolded := h.nonFoldedIndices()
	if len(nonFolded) == 1 {
		settlement := h.awardUncontested(nonFolded[0])
		return &settlement, nil
	}

	able := h.ableIndices()
	nextIdx, hasNext := nextAbleIndex(actedIdx, able, len(h.Seats))

	allActed := true
	allMatched := true
	for _, idx := range able {
		s := h.Seats[idx]
		if !h.ActedThisRound[s.ID] {
			allActed = false
		}
		if s.CurrentRoundBet != h.CurrentBetToMatch {
			allMatched = false
		}
	}

	// When the aggressor can no longer act (all-in), the pointer can
	// never return to them; completion falls back to everyone-acted.
	aggressorSatisfied := true
	if h.LastAggressorIdx >= 0 && h.Seats[h.LastAggressorIdx] != nil && h.Seats[h.LastAggressorIdx].CanAct() {
		aggressorSatisfied = !hasNext || nextIdx == h.LastAggressorIdx
	} else {
		aggressorSatisfied = allActed
	}

	roundEnds := allActed && allMatched && aggressorSatisfied
	if roundEnds {
		return h.advanceStreetOrShowdown(now)
	}
	h.CurrentSeat = nextIdx
	h.armDeadline(now)
	return nil, nil
}

// nextAbleIndex returns the next seat index strictly after from that
// can still act, or ok=false if none can.
func nextAbleIndex(from int, able []int, n int) (int, bool) {
	if len(able) == 0 {
		return 0, false
	}
	return nextParticipatingIndex(from, able, n), true
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
