package hand

import (
	"holdem-server/internal/deck"
	"holdem-server/internal/evaluator"
)

// Settlement reports what happened at the end of a hand: which seats
// won which pot layers. The table session writes its winners and
// showdown flag into the hand_end log line.
type Settlement struct {
	Winners  []int // seat indices that won at least one chip
	PotWon   map[int]int64
	Showdown bool // true if it reached showdown (vs. won uncontested by fold)
}

// awardUncontested ends the hand when exactly one non-folded seat
// remains: that seat takes the whole pot without a card comparison.
func (h *Hand) awardUncontested(winnerIdx int) Settlement {
	s := h.Seats[winnerIdx]
	_ = s.AddChips(h.Pot)
	settlement := Settlement{Winners: []int{winnerIdx}, PotWon: map[int]int64{winnerIdx: h.Pot}}
	h.Pot = 0
	h.Stage = StageComplete
	return settlement
}

// showdown evaluates every non-folded seat's best 5-of-7 hand, splits
// each side-pot layer among its tied winners (floor division; any
// remainder is dropped), and transitions to complete.
func (h *Hand) showdown() (Settlement, error) {
	h.Stage = StageShowdown

	contributions := map[int]int64{}
	folded := map[int]bool{}
	ranks := map[int]evaluator.HandRank{}
	for i, s := range h.Seats {
		if s == nil {
			continue
		}
		// Every chip that entered the pot stays in a layer: folded
		// seats contribute but are never eligible.
		if s.CumulativeRoundBet > 0 {
			contributions[i] = s.CumulativeRoundBet
			folded[i] = s.Folded
		}
		if s.ActiveInHand && !s.Folded {
			cards := make([]deck.Card, 0, 7)
			cards = append(cards, s.Hole...)
			cards = append(cards, h.Community...)
			ranks[i] = evaluator.Evaluate(cards)
		}
	}

	pots := ComputeSidePots(contributions, folded)
	settlement := Settlement{PotWon: map[int]int64{}, Showdown: true}
	for _, pot := range pots {
		winners := bestRankedAmong(pot.Eligible, ranks)
		if len(winners) == 0 {
			continue
		}
		share := pot.Amount / int64(len(winners))
		for _, w := range winners {
			_ = h.Seats[w].AddChips(share)
			settlement.PotWon[w] += share
		}
	}
	for idx := range settlement.PotWon {
		settlement.Winners = append(settlement.Winners, idx)
	}
	h.Pot = 0
	h.Stage = StageComplete
	return settlement, nil
}

// bestRankedAmong returns the eligible seat indices holding the best
// (possibly tied) hand rank.
func bestRankedAmong(eligible []int, ranks map[int]evaluator.HandRank) []int {
	if len(eligible) == 0 {
		return nil
	}
	best := ranks[eligible[0]]
	winners := []int{eligible[0]}
	for _, idx := range eligible[1:] {
		cmp := evaluator.Compare(ranks[idx], best)
		switch {
		case cmp > 0:
			best = ranks[idx]
			winners = []int{idx}
		case cmp == 0:
			winners = append(winners, idx)
		}
	}
	return winners
}
