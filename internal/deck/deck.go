package deck

import (
	"math/rand"
	"time"
)

// Size is the number of cards in a full, unshuffled deck.
const Size = 52

// Deck is an ordered sequence of distinct cards. Cards are dealt and
// burned from the front; Remaining reports what's left.
type Deck struct {
	cards []Card
}

// New returns a freshly ordered, unshuffled 52-card deck.
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	d.Reset()
	return d
}

// Reset restores the deck to all 52 cards in canonical order.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	for s := Spades; s <= Clubs; s++ {
		for r := Two; r <= Ace; r++ {
			d.cards = append(d.cards, Card{Rank: r, Suit: s})
		}
	}
}

// Shuffle permutes the remaining cards uniformly at random.
func (d *Deck) Shuffle() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the top card. Panics if the deck is empty —
// callers must check Remaining first; an empty deal mid-hand is an
// invariant violation, not a recoverable condition.
func (d *Deck) Deal() Card {
	if len(d.cards) == 0 {
		panic("deck: deal from empty deck")
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c
}

// Burn removes and discards the top card without revealing it.
func (d *Deck) Burn() {
	if len(d.cards) == 0 {
		panic("deck: burn from empty deck")
	}
	d.cards = d.cards[1:]
}

// Remaining reports how many cards are left to deal.
func (d *Deck) Remaining() int { return len(d.cards) }

// RemainingCards returns the remaining cards in current order, for
// serialization. The returned slice is a copy.
func (d *Deck) RemainingCards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Restore replaces the deck's remaining cards with exactly the given
// order, used when reconstructing a Deck from serialized state.
func Restore(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}
