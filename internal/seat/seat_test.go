package seat

import (
	"testing"

	"holdem-server/internal/apperrors"
	"holdem-server/internal/deck"
)

func TestDealHoleCardsRejectsSecondDeal(t *testing.T) {
	s := New("u1", "Alice", 1, 1000)
	if err := s.DealHoleCards(deck.Card{Rank: deck.Ace, Suit: deck.Spades}, deck.Card{Rank: deck.King, Suit: deck.Spades}); err != nil {
		t.Fatalf("first deal: %v", err)
	}
	err := s.DealHoleCards(deck.Card{Rank: deck.Two, Suit: deck.Hearts}, deck.Card{Rank: deck.Three, Suit: deck.Hearts})
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.InvariantViolation {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
}

func TestBetCapsAtStackAndSetsAllIn(t *testing.T) {
	s := New("u1", "Alice", 1, 50)
	paid, err := s.Bet(100)
	if err != nil {
		t.Fatalf("bet: %v", err)
	}
	if paid != 50 {
		t.Fatalf("paid = %d, want 50", paid)
	}
	if s.Stack != 0 || !s.AllIn {
		t.Fatalf("expected stack=0, all-in=true, got stack=%d all-in=%v", s.Stack, s.AllIn)
	}
}

func TestBetNegativeAmountFails(t *testing.T) {
	s := New("u1", "Alice", 1, 50)
	if _, err := s.Bet(-1); err == nil {
		t.Fatalf("expected error for negative bet")
	}
}

func TestFoldMarksInactive(t *testing.T) {
	s := New("u1", "Alice", 1, 100)
	s.Fold()
	if !s.Folded || s.ActiveInHand {
		t.Fatalf("fold should set folded=true, active=false")
	}
}

func TestResetForNewStreetKeepsCumulative(t *testing.T) {
	s := New("u1", "Alice", 1, 100)
	s.Bet(20)
	s.ResetForNewStreet()
	if s.CurrentRoundBet != 0 {
		t.Fatalf("current round bet should reset, got %d", s.CurrentRoundBet)
	}
	if s.CumulativeRoundBet != 20 {
		t.Fatalf("cumulative bet should persist, got %d", s.CumulativeRoundBet)
	}
}

func TestResetForNewHandFlipsInactiveWhenBroke(t *testing.T) {
	s := New("u1", "Alice", 1, 20)
	s.Bet(20)
	s.ResetForNewHand()
	if s.ActiveInHand {
		t.Fatalf("broke seat should be inactive after reset")
	}
	if len(s.Hole) != 0 {
		t.Fatalf("hole cards should be cleared")
	}
}

func TestCanAct(t *testing.T) {
	s := New("u1", "Alice", 1, 100)
	if !s.CanAct() {
		t.Fatalf("fresh seat should be able to act")
	}
	s.Fold()
	if s.CanAct() {
		t.Fatalf("folded seat should not be able to act")
	}
}

func TestPrivateViewIncludesHoleCards(t *testing.T) {
	s := New("u1", "Alice", 1, 100)
	s.DealHoleCards(deck.Card{Rank: deck.Ace, Suit: deck.Spades}, deck.Card{Rank: deck.King, Suit: deck.Hearts})
	pv := s.Private()
	if len(pv.Hole) != 2 {
		t.Fatalf("expected 2 hole cards in private view, got %d", len(pv.Hole))
	}
	pubHoleCount := s.Public().HoleCardCount
	if pubHoleCount != 2 {
		t.Fatalf("public view should report hole card count, got %d", pubHoleCount)
	}
}
