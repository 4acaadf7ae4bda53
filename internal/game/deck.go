package game

import (
	"errors"
	"math/rand/v2"
)

// DeckSize is the number of cards in one deck: 13 ranks across 4 suits.
const DeckSize = 52

// ErrDeckExhausted means a draw was attempted past the 52nd card. A legal
// round can never consume a full deck, so hitting this indicates a protocol
// or logic violation, not normal play.
var ErrDeckExhausted = errors.New("game: deck exhausted")

// Deck is one shuffled 52-card deck with a draw cursor. A deck belongs to
// exactly one round and is discarded when the round ends; it is never
// reshuffled or reused.
type Deck struct {
	cards []Card
	next  int
}

// NewDeck builds all 52 (rank, suit) combinations in a uniformly random
// order. The global math/rand/v2 source is ChaCha8 seeded by the runtime,
// so the ordering is not predictable by a peer.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for suit := SuitHearts; suit <= SuitSpades; suit++ {
		for rank := RankAce; rank <= RankKing; rank++ {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw returns the next card and advances the cursor.
func (d *Deck) Draw() (Card, error) {
	if d.next >= len(d.cards) {
		return Card{}, ErrDeckExhausted
	}
	c := d.cards[d.next]
	d.next++
	return c, nil
}

// Remaining reports how many cards are left to draw.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
