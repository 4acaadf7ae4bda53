package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"lanjack/internal/client"
	"lanjack/internal/config"
	"lanjack/internal/discovery"
	"lanjack/internal/game"
	"lanjack/internal/protocol"
)

func main() {
	logger := zap.NewNop()
	if os.Getenv("LANJACK_DEBUG") != "" {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	cfg := config.Load()

	entry, err := pickServer(cfg, logger)
	if err != nil {
		pterm.Error.Printfln("discovery failed: %v", err)
		os.Exit(1)
	}

	team, rounds := promptSession()

	addr := net.JoinHostPort(entry.Addr.IP.String(), strconv.Itoa(int(entry.Offer.TCPPort)))
	conn, err := net.DialTimeout("tcp4", addr, 10*time.Second)
	if err != nil {
		pterm.Error.Printfln("could not connect to %s: %v", addr, err)
		os.Exit(1)
	}

	pterm.Info.Printfln("Connected to %s (%s), playing %d round(s) as %s",
		entry.Offer.ServerName, addr, rounds, team)

	cl := client.New(conn, 30*time.Second, logger.Named("client"))
	totals, err := cl.Play(team, rounds, promptDecision, renderHooks())
	if err != nil {
		pterm.Warning.Printfln("session ended early: %v", err)
	}
	printSummary(totals)
}

// pickServer listens on the well-known port, gathers offers briefly after
// the first one arrives, and lets the user choose.
func pickServer(cfg config.Config, logger *zap.Logger) (discovery.Entry, error) {
	lst := discovery.NewListener(cfg.DiscoveryPort, logger.Named("discovery"))
	if err := lst.Start(); err != nil {
		return discovery.Entry{}, err
	}
	defer lst.Close()

	spinner, _ := pterm.DefaultSpinner.Start(
		fmt.Sprintf("Listening for game servers on UDP %d...", cfg.DiscoveryPort))

	first, ok := <-lst.Entries()
	if !ok {
		spinner.Fail("discovery listener closed")
		return discovery.Entry{}, fmt.Errorf("discovery listener closed")
	}

	// Offers repeat every interval; a short extra window catches the other
	// servers on the network without making the user wait.
	entries := []discovery.Entry{first}
	window := time.After(2 * time.Second)
gather:
	for {
		select {
		case e, ok := <-lst.Entries():
			if !ok {
				break gather
			}
			entries = append(entries, e)
		case <-window:
			break gather
		}
	}
	spinner.Success(fmt.Sprintf("Heard %d offer(s)", len(entries)))

	labels := make([]string, 0, len(entries))
	byLabel := make(map[string]discovery.Entry, len(entries))
	for _, e := range entries {
		label := fmt.Sprintf("%s @ %s:%d", e.Offer.ServerName, e.Addr.IP, e.Offer.TCPPort)
		if _, seen := byLabel[label]; !seen {
			labels = append(labels, label)
			byLabel[label] = e
		}
	}
	if len(labels) == 1 {
		return byLabel[labels[0]], nil
	}

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(labels).
		Show("Pick a server")
	if err != nil {
		return discovery.Entry{}, err
	}
	return byLabel[choice], nil
}

func promptSession() (string, uint8) {
	team, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultValue("Anonymous").
		Show("Team name")

	for {
		answer, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultValue("1").
			Show("Rounds to play (1-255)")
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= protocol.MaxRounds {
			return team, uint8(n)
		}
		pterm.Warning.Println("Enter a number between 1 and 255.")
	}
}

func promptDecision(player []game.Card, playerValue int, dealerUp game.Card) protocol.Decision {
	pterm.Println()
	pterm.Printfln("Your hand (%s): %s", handLabel(playerValue), renderHand(player))
	pterm.Printfln("Dealer shows: %s", renderCard(dealerUp))

	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Hit", "Stand"}).
		Show("Your move")
	if choice == "Hit" {
		return protocol.DecisionHit
	}
	return protocol.DecisionStand
}

func renderHooks() client.Hooks {
	return client.Hooks{
		PlayerCard: func(c game.Card, handValue int) {
			pterm.Printfln("You are dealt %s (total %d)", renderCard(c), handValue)
		},
		DealerCard: func(c game.Card) {
			pterm.Printfln("Dealer reveals %s", renderCard(c))
		},
		RoundResult: func(round int, result protocol.Result) {
			switch result {
			case protocol.ResultWin:
				pterm.Success.Printfln("Round %d: you win!", round)
			case protocol.ResultLoss:
				pterm.Error.Printfln("Round %d: you lose.", round)
			case protocol.ResultTie:
				pterm.Info.Printfln("Round %d: push.", round)
			}
		},
	}
}

func printSummary(t client.Totals) {
	box := pterm.DefaultBox.WithTitle("Session summary").WithTitleTopCenter()
	rate := 0.0
	if t.RoundsPlayed > 0 {
		rate = float64(t.Wins) / float64(t.RoundsPlayed) * 100
	}
	box.Printfln("Rounds: %d\nWins:   %d\nLosses: %d\nTies:   %d\nWin rate: %.1f%%",
		t.RoundsPlayed, t.Wins, t.Losses, t.Ties, rate)
}

var suitSymbols = [...]string{"♥", "♦", "♣", "♠"}

func renderCard(c game.Card) string {
	symbol := "?"
	if c.Suit >= game.SuitHearts && c.Suit <= game.SuitSpades {
		symbol = suitSymbols[c.Suit]
	}
	return fmt.Sprintf("%s%s", shortRank(c), symbol)
}

func renderHand(hand []game.Card) string {
	s := ""
	for i, c := range hand {
		if i > 0 {
			s += " "
		}
		s += renderCard(c)
	}
	return s
}

func shortRank(c game.Card) string {
	switch c.Rank {
	case game.RankAce:
		return "A"
	case game.RankJack:
		return "J"
	case game.RankQueen:
		return "Q"
	case game.RankKing:
		return "K"
	default:
		return strconv.Itoa(c.Rank)
	}
}

func handLabel(value int) string {
	if game.IsBust(value) {
		return fmt.Sprintf("%d, bust", value)
	}
	return strconv.Itoa(value)
}
