package deck

import "testing"

func TestNewDeckHas52DistinctCards(t *testing.T) {
	d := New()
	if d.Remaining() != Size {
		t.Fatalf("remaining = %d, want %d", d.Remaining(), Size)
	}
	seen := map[Card]bool{}
	for _, c := range d.RemainingCards() {
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestDealBurnReduceRemaining(t *testing.T) {
	d := New()
	d.Deal()
	d.Burn()
	if d.Remaining() != Size-2 {
		t.Fatalf("remaining = %d, want %d", d.Remaining(), Size-2)
	}
}

func TestResetReturnsTo52(t *testing.T) {
	d := New()
	d.Deal()
	d.Deal()
	d.Reset()
	if d.Remaining() != Size {
		t.Fatalf("remaining after reset = %d, want %d", d.Remaining(), Size)
	}
}

func TestShufflePermutesAllCards(t *testing.T) {
	d := New()
	before := d.RemainingCards()
	d.Shuffle()
	after := d.RemainingCards()
	if len(before) != len(after) {
		t.Fatalf("length changed across shuffle")
	}
	counts := map[Card]int{}
	for _, c := range before {
		counts[c]++
	}
	for _, c := range after {
		counts[c]--
	}
	for c, n := range counts {
		if n != 0 {
			t.Fatalf("card %v count changed by shuffle", c)
		}
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	d := New()
	d.Shuffle()
	d.Deal()
	remaining := d.RemainingCards()
	restored := Restore(remaining)
	if restored.Remaining() != len(remaining) {
		t.Fatalf("restored remaining = %d, want %d", restored.Remaining(), len(remaining))
	}
	for i, c := range restored.RemainingCards() {
		if c != remaining[i] {
			t.Fatalf("card %d mismatch: got %v want %v", i, c, remaining[i])
		}
	}
}
