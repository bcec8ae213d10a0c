package evaluator

import (
	"testing"

	"holdem-server/internal/deck"
)

func c(s string) deck.Card {
	ranks := map[byte]deck.Rank{
		'2': deck.Two, '3': deck.Three, '4': deck.Four, '5': deck.Five,
		'6': deck.Six, '7': deck.Seven, '8': deck.Eight, '9': deck.Nine,
		'T': deck.Ten, 'J': deck.Jack, 'Q': deck.Queen, 'K': deck.King, 'A': deck.Ace,
	}
	suits := map[byte]deck.Suit{
		's': deck.Spades, 'h': deck.Hearts, 'd': deck.Diamonds, 'c': deck.Clubs,
	}
	return deck.Card{Rank: ranks[s[0]], Suit: suits[s[1]]}
}

func cards(codes ...string) []deck.Card {
	out := make([]deck.Card, len(codes))
	for i, code := range codes {
		out[i] = c(code)
	}
	return out
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name string
		hand []string
		want Category
	}{
		{"straight flush", []string{"Ah", "Kh", "Qh", "Jh", "Th", "2c", "3d"}, StraightFlush},
		{"wheel straight flush", []string{"Ah", "2h", "3h", "4h", "5h", "Kc", "Qd"}, StraightFlush},
		{"four of a kind", []string{"Ah", "Ac", "Ad", "As", "Kh", "2c", "3d"}, FourOfAKind},
		{"full house", []string{"Ah", "Ac", "Ad", "Kh", "Kc", "2c", "3d"}, FullHouse},
		{"flush", []string{"Ah", "Kh", "9h", "5h", "2h", "2c", "3d"}, Flush},
		{"straight", []string{"9h", "8c", "7d", "6h", "5h", "2c", "Kd"}, Straight},
		{"wheel straight", []string{"Ah", "2c", "3d", "4h", "5h", "Kc", "Qd"}, Straight},
		{"three of a kind", []string{"Ah", "Ac", "Ad", "2h", "3h", "5c", "9d"}, ThreeOfAKind},
		{"two pair", []string{"Ah", "Ac", "Kd", "Kh", "2c", "3d", "9h"}, TwoPair},
		{"one pair", []string{"Ah", "Ac", "2d", "3h", "5c", "9d", "Jh"}, OnePair},
		{"high card", []string{"Ah", "Kc", "9d", "5h", "2c", "3d", "7h"}, HighCard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(cards(tt.hand...))
			if got.Category != tt.want {
				t.Fatalf("category = %v, want %v", got.Category, tt.want)
			}
		})
	}
}

func TestCompareOrdersByCategoryThenTiebreaker(t *testing.T) {
	aces := Evaluate(cards("Ah", "Ac", "Ad", "2h", "3h", "5c", "9d"))
	kings := Evaluate(cards("Kh", "Kc", "Kd", "2h", "3h", "5c", "9d"))
	if !Better(aces, kings) {
		t.Fatalf("trip aces should beat trip kings")
	}
	flush := Evaluate(cards("Ah", "Kh", "9h", "5h", "2h", "2c", "3d"))
	if !Better(flush, aces) {
		t.Fatalf("flush should beat three of a kind")
	}
}

func TestCompareExactTieIsZero(t *testing.T) {
	a := Evaluate(cards("Ah", "Kh", "Qh", "Jh", "Th", "2c", "3d"))
	b := Evaluate(cards("Ac", "Kc", "Qc", "Jc", "Tc", "9h", "8h"))
	if Compare(a, b) != 0 {
		t.Fatalf("identical-rank straight flushes should tie, got %v vs %v", a, b)
	}
}

func TestEvaluateFiveCardHand(t *testing.T) {
	h := Evaluate(cards("Ah", "Kh", "Qh", "Jh", "Th"))
	if h.Category != StraightFlush {
		t.Fatalf("category = %v, want StraightFlush", h.Category)
	}
}
