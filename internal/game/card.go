// Package game holds the blackjack rules: cards, decks, hand values, the
// dealer's fixed strategy and winner resolution. Everything here is pure
// game logic with no knowledge of the wire protocol or any socket.
package game

import "fmt"

// Ranks run 1..13 with Ace low on the wire (its play value is handled by
// Card.Value), suits run 0..3.
const (
	RankAce   = 1
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13

	SuitHearts   = 0
	SuitDiamonds = 1
	SuitClubs    = 2
	SuitSpades   = 3
)

// Card is an immutable (rank, suit) pair.
type Card struct {
	Rank int // 1..13
	Suit int // 0..3
}

// Value is the card's base blackjack value: Ace counts 11, face cards and
// tens count 10, everything else counts its rank. Ace demotion to 1 is a
// property of a whole hand, not of a card; see HandValue.
func (c Card) Value() int {
	switch {
	case c.Rank == RankAce:
		return 11
	case c.Rank >= 10:
		return 10
	default:
		return c.Rank
	}
}

var rankNames = [...]string{"", "Ace", "2", "3", "4", "5", "6", "7", "8", "9", "10", "Jack", "Queen", "King"}

var suitNames = [...]string{"Hearts", "Diamonds", "Clubs", "Spades"}

// RankName returns the display name of the card's rank, or "?" when the
// rank is outside 1..13.
func (c Card) RankName() string {
	if c.Rank < RankAce || c.Rank > RankKing {
		return "?"
	}
	return rankNames[c.Rank]
}

// SuitName returns the display name of the card's suit, or "?" when the
// suit is outside 0..3.
func (c Card) SuitName() string {
	if c.Suit < SuitHearts || c.Suit > SuitSpades {
		return "?"
	}
	return suitNames[c.Suit]
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.RankName(), c.SuitName())
}
