package hand

import (
	"testing"
	"time"

	"holdem-server/internal/seat"
)

func TestAddSeatWhileWaiting(t *testing.T) {
	h := New(Config{SmallBlind: 1, BigBlind: 2}, make([]*seat.Seat, 4))
	active, err := h.AddSeat(seat.New("A", "A", 1, 100))
	if err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	if !active {
		t.Fatal("a seat joining in the waiting stage is in for the next hand")
	}
	if h.Seats[0] == nil {
		t.Fatal("seat 1 not placed at slot 0")
	}
}

func TestAddSeatRejectsOccupiedAndDuplicate(t *testing.T) {
	h := New(Config{SmallBlind: 1, BigBlind: 2}, make([]*seat.Seat, 4))
	if _, err := h.AddSeat(seat.New("A", "A", 1, 100)); err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	if _, err := h.AddSeat(seat.New("B", "B", 1, 100)); err == nil {
		t.Fatal("expected occupied seat to be rejected")
	}
	if _, err := h.AddSeat(seat.New("A", "A", 2, 100)); err == nil {
		t.Fatal("expected duplicate user to be rejected")
	}
	if _, err := h.AddSeat(seat.New("C", "C", 9, 100)); err == nil {
		t.Fatal("expected out-of-range seat index to be rejected")
	}
}

func TestAddSeatMidHandAppliesBlindPositionRule(t *testing.T) {
	seats := make([]*seat.Seat, 4)
	seats[0] = seat.New("A", "A", 1, 100)
	seats[1] = seat.New("B", "B", 2, 100)
	h := New(Config{SmallBlind: 1, BigBlind: 2}, seats)
	now := time.Unix(1000, 0)
	if err := h.StartHand(now); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// With three seats the next hand has a full rotation: dealer moves
	// past the current dealer, small blind next, big blind after that.
	joiner := seat.New("C", "C", 3, 100)
	active, err := h.AddSeat(joiner)
	if err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	if joiner.ActiveInHand {
		t.Fatal("a mid-hand joiner must never play the hand in progress")
	}
	wantBB := h.nextBigBlindIndex(2)
	if active != (wantBB == 2) {
		t.Fatalf("active = %v, want %v (next bb index %d)", active, wantBB == 2, wantBB)
	}
}

func TestRemoveSeat(t *testing.T) {
	h := New(Config{SmallBlind: 1, BigBlind: 2}, make([]*seat.Seat, 2))
	if _, err := h.AddSeat(seat.New("A", "A", 1, 100)); err != nil {
		t.Fatalf("AddSeat: %v", err)
	}
	removed := h.RemoveSeat("A")
	if removed == nil || removed.ID != "A" {
		t.Fatalf("RemoveSeat returned %v, want seat A", removed)
	}
	if h.RemoveSeat("A") != nil {
		t.Fatal("removing an absent user must return nil")
	}
}
