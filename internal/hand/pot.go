package hand

import "sort"

// SidePot is one pot layer: an amount and the seat indices eligible to
// win it (non-folded seats whose cumulative contribution reached this
// layer's level).
type SidePot struct {
	Amount   int64
	Eligible []int
}

// ComputeSidePots builds the side-pot layering for a hand from each
// seat's total chips contributed this hand (CumulativeRoundBet) and
// which seats have folded. This generalizes the single-pot/floor-divide
// scheme to N unequal all-in contributions: every distinct contribution
// level becomes its own layer, split only among the seats that
// contributed at least that much and haven't folded.
func ComputeSidePots(contributions map[int]int64, folded map[int]bool) []SidePot {
	levels := make([]int64, 0, len(contributions))
	seen := map[int64]bool{}
	for _, amt := range contributions {
		if amt > 0 && !seen[amt] {
			seen[amt] = true
			levels = append(levels, amt)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []SidePot
	var prev int64
	for _, level := range levels {
		var contributors int64
		eligible := make([]int, 0)
		for seatIdx, amt := range contributions {
			if amt >= level {
				contributors++
				if !folded[seatIdx] {
					eligible = append(eligible, seatIdx)
				}
			}
		}
		amount := (level - prev) * contributors
		if amount > 0 && len(eligible) > 0 {
			sort.Ints(eligible)
			pots = append(pots, SidePot{Amount: amount, Eligible: eligible})
		} else if amount > 0 {
			// Every contributor at this level folded; nobody is
			// eligible, so the layer's chips are dropped, matching
			// the deterministic dropped-remainder policy for ties.
		}
		prev = level
	}
	return pots
}
