package hand

import "time"

// advanceStreetOrShowdown ends a betting round: clear round bets, then
// either fast-forward to showdown (when at most one seat can still
// act) or burn-and-deal the next street and pick who acts first.
func (h *Hand) advanceStreetOrShowdown(now time.Time) (*Settlement, error) {
	nonFolded := h.nonFoldedIndices()
	for _, idx := range nonFolded {
		h.Seats[idx].ResetForNewStreet()
	}
	h.CurrentBetToMatch = 0
	h.LastAggressorIdx = -1
	h.LastRaiseSize = 0
	h.ActedThisRound = map[string]bool{}

	able := intersect(nonFolded, h.ableIndices())

	if h.Stage == StageRiver {
		settlement, err := h.showdown()
		return &settlement, err
	}

	if len(able) <= 1 {
		h.dealRemainingStreetsWithBurns()
		settlement, err := h.showdown()
		return &settlement, err
	}

	h.dealNextStreet()

	startIdx, ok := firstAtOrAfter(h.SmallBlindIdx, able, len(h.Seats))
	if !ok {
		settlement, err := h.showdown()
		return &settlement, err
	}
	h.CurrentSeat = startIdx
	h.armDeadline(now)
	return nil, nil
}

func (h *Hand) dealNextStreet() {
	switch h.Stage {
	case StagePreflop:
		h.Deck.Burn()
		h.Community = append(h.Community, h.Deck.Deal(), h.Deck.Deal(), h.Deck.Deal())
		h.Stage = StageFlop
	case StageFlop:
		h.Deck.Burn()
		h.Community = append(h.Community, h.Deck.Deal())
		h.Stage = StageTurn
	case StageTurn:
		h.Deck.Burn()
		h.Community = append(h.Community, h.Deck.Deal())
		h.Stage = StageRiver
	}
}

func (h *Hand) dealRemainingStreetsWithBurns() {
	for h.Stage != StageRiver {
		h.dealNextStreet()
	}
}

func intersect(a, b []int) []int {
	bSet := map[int]bool{}
	for _, x := range b {
		bSet[x] = true
	}
	out := make([]int, 0, len(a))
	for _, x := range a {
		if bSet[x] {
			out = append(out, x)
		}
	}
	return out
}

// firstAtOrAfter returns the smallest member of set that is >= start in
// circular order starting at start, i.e. start itself if present, else
// the next member after it.
func firstAtOrAfter(start int, set []int, n int) (int, bool) {
	if len(set) == 0 {
		return 0, false
	}
	for _, x := range set {
		if x == start {
			return start, true
		}
	}
	return nextParticipatingIndex(start, set, n), true
}
