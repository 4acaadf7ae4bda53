package game

// MaxHandValue is the bust threshold.
const MaxHandValue = 21

// dealerHitThreshold: the dealer hits below 17 and stands at 17 or more.
const dealerHitThreshold = 17

// Outcome is a round result from the player's perspective.
type Outcome int

const (
	OutcomeTie Outcome = iota
	OutcomeLoss
	OutcomeWin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTie:
		return "tie"
	case OutcomeLoss:
		return "loss"
	case OutcomeWin:
		return "win"
	default:
		return "invalid"
	}
}

// HandValue computes a hand's total. Every Ace starts at 11; while the total
// busts and undemoted Aces remain, one Ace at a time drops to 1. This is the
// standard soft/hard rule, recomputed at read time from the full hand.
func HandValue(hand []Card) int {
	total, aces := 0, 0
	for _, c := range hand {
		total += c.Value()
		if c.Rank == RankAce {
			aces++
		}
	}
	for aces > 0 && total > MaxHandValue {
		total -= 10
		aces--
	}
	return total
}

// IsBust reports whether a hand value is over the limit.
func IsBust(value int) bool {
	return value > MaxHandValue
}

// DealerShouldHit is the dealer's entire strategy. Deterministic so that any
// peer can verify the dealer played by the book.
func DealerShouldHit(value int) bool {
	return value < dealerHitThreshold
}

// Resolve decides a round from the player's perspective. A busted player
// loses outright, even against a busted dealer.
func Resolve(playerValue int, playerBust bool, dealerValue int, dealerBust bool) Outcome {
	switch {
	case playerBust:
		return OutcomeLoss
	case dealerBust:
		return OutcomeWin
	case playerValue > dealerValue:
		return OutcomeWin
	case playerValue < dealerValue:
		return OutcomeLoss
	default:
		return OutcomeTie
	}
}
