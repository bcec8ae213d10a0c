package hand

import "testing"

func TestComputeSidePotsSingleLevel(t *testing.T) {
	contributions := map[int]int64{0: 10, 1: 10, 2: 10}
	folded := map[int]bool{0: false, 1: false, 2: false}
	pots := ComputeSidePots(contributions, folded)
	if len(pots) != 1 {
		t.Fatalf("pots = %d, want 1", len(pots))
	}
	if pots[0].Amount != 30 {
		t.Fatalf("amount = %d, want 30", pots[0].Amount)
	}
	if len(pots[0].Eligible) != 3 {
		t.Fatalf("eligible = %v, want all 3 seats", pots[0].Eligible)
	}
}

func TestComputeSidePotsUnevenAllIn(t *testing.T) {
	// seat 0 all-in for 5, seat 1 all-in for 15, seat 2 calls full 20.
	contributions := map[int]int64{0: 5, 1: 15, 2: 20}
	folded := map[int]bool{0: false, 1: false, 2: false}
	pots := ComputeSidePots(contributions, folded)
	if len(pots) != 3 {
		t.Fatalf("pots = %d, want 3 layers", len(pots))
	}
	// layer 1: 5*3=15, everyone eligible
	if pots[0].Amount != 15 || len(pots[0].Eligible) != 3 {
		t.Fatalf("layer1 = %+v, want amount 15 eligible 3", pots[0])
	}
	// layer 2: (15-5)*2=20, seats 1,2 eligible
	if pots[1].Amount != 20 || len(pots[1].Eligible) != 2 {
		t.Fatalf("layer2 = %+v, want amount 20 eligible 2", pots[1])
	}
	// layer 3: (20-15)*1=5, seat 2 only
	if pots[2].Amount != 5 || len(pots[2].Eligible) != 1 {
		t.Fatalf("layer3 = %+v, want amount 5 eligible 1", pots[2])
	}
}

func TestComputeSidePotsExcludesFoldedFromEligibility(t *testing.T) {
	contributions := map[int]int64{0: 10, 1: 10, 2: 10}
	folded := map[int]bool{0: true, 1: false, 2: false}
	pots := ComputeSidePots(contributions, folded)
	if len(pots) != 1 {
		t.Fatalf("pots = %d, want 1", len(pots))
	}
	if len(pots[0].Eligible) != 2 {
		t.Fatalf("eligible = %v, want 2 non-folded seats", pots[0].Eligible)
	}
	if pots[0].Amount != 30 {
		t.Fatalf("amount = %d, want the full 30 even though one contributor folded", pots[0].Amount)
	}
}

func TestComputeSidePotsAllContributorsAtTopLevelFolded(t *testing.T) {
	// seat 0 all-in for 10 then folds is impossible (all-in can't fold),
	// but a side-pot layer can still end up with zero eligible seats
	// when every seat that reached that level has folded at a lower one.
	contributions := map[int]int64{0: 10, 1: 20}
	folded := map[int]bool{0: false, 1: true}
	pots := ComputeSidePots(contributions, folded)
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	if total != 20 {
		t.Fatalf("total pot amount = %d, want 20 (the 10 layer only the folded seat reached is dropped)", total)
	}
	for _, p := range pots {
		if len(p.Eligible) == 0 {
			t.Fatalf("pot %+v has no eligible winner", p)
		}
	}
}
