// Package session drives one client's entire visit on the server side: it
// reads the opening Request, then plays the requested number of rounds over
// the connection, dealing from a fresh deck each round, honoring the
// client's hit/stand decisions, playing out the dealer's fixed strategy and
// reporting each round's verdict.
//
// A session owns its connection, deck and hands exclusively. Any decode
// error, timeout or peer close aborts this session only; counters
// accumulated before the abort remain valid.
package session

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"lanjack/internal/game"
	"lanjack/internal/protocol"
)

// Phase is where the state machine currently is. Exposed mostly for logs
// and tests; transitions are fixed:
// awaiting_request -> dealing -> player_turn -> dealer_turn -> resolving,
// then back to dealing for the next round or to done.
type Phase string

const (
	PhaseAwaitRequest Phase = "awaiting_request"
	PhaseDealing      Phase = "dealing"
	PhasePlayerTurn   Phase = "player_turn"
	PhaseDealerTurn   Phase = "dealer_turn"
	PhaseResolving    Phase = "resolving"
	PhaseDone         Phase = "done"
)

// Stats are the session's running counters. They are updated as rounds
// resolve and stay valid even if the session later aborts.
type Stats struct {
	TeamName        string
	RoundsRequested int
	RoundsCompleted int
	Wins            int
	Losses          int
	Ties            int
}

// Hooks let the owner observe the session without sharing state. Either
// field may be nil. RoundResolved fires once per finished round; Closed
// fires exactly once when the session ends, cleanly or not.
type Hooks struct {
	RoundResolved func(team string, outcome game.Outcome)
	Closed        func(stats Stats, aborted bool)
}

// cardSource is what a round draws from. Swapped out in tests to script
// exact deals.
type cardSource interface {
	Draw() (game.Card, error)
}

var newDeck = func() cardSource { return game.NewDeck() }

// Session is the per-connection state machine. Create with New, drive with
// Run. Not safe for concurrent use; exactly one goroutine runs a session.
type Session struct {
	conn        net.Conn
	recvTimeout time.Duration
	hooks       Hooks
	log         *zap.Logger

	phase Phase
	stats Stats
}

// New wraps an accepted connection. recvTimeout bounds every wait for an
// expected client message; the session never blocks indefinitely.
func New(conn net.Conn, recvTimeout time.Duration, hooks Hooks, log *zap.Logger) *Session {
	return &Session{
		conn:        conn,
		recvTimeout: recvTimeout,
		hooks:       hooks,
		log:         log,
		phase:       PhaseAwaitRequest,
	}
}

// Stats returns a copy of the running counters.
func (s *Session) Stats() Stats { return s.stats }

// Phase returns the machine's current phase.
func (s *Session) Phase() Phase { return s.phase }

// Run drives the session to completion and always closes the connection.
// It returns nil when every requested round was played, or the error that
// aborted the session.
func (s *Session) Run() error {
	defer s.conn.Close()

	err := s.run()
	if s.hooks.Closed != nil {
		s.hooks.Closed(s.stats, err != nil)
	}
	if err != nil {
		s.log.Warn("session aborted",
			zap.String("phase", string(s.phase)),
			zap.String("team", s.stats.TeamName),
			zap.Int("rounds_completed", s.stats.RoundsCompleted),
			zap.Error(err))
		return err
	}
	s.log.Info("session complete",
		zap.String("team", s.stats.TeamName),
		zap.Int("rounds", s.stats.RoundsCompleted),
		zap.Int("wins", s.stats.Wins),
		zap.Int("losses", s.stats.Losses),
		zap.Int("ties", s.stats.Ties))
	return nil
}

func (s *Session) run() error {
	req, err := s.awaitRequest()
	if err != nil {
		return err
	}
	s.stats.TeamName = req.TeamName
	s.stats.RoundsRequested = int(req.Rounds)
	s.log.Info("session started",
		zap.String("team", req.TeamName),
		zap.Int("rounds_requested", int(req.Rounds)))

	for s.stats.RoundsCompleted < s.stats.RoundsRequested {
		if err := s.playRound(); err != nil {
			return err
		}
	}
	s.phase = PhaseDone
	return nil
}

// awaitRequest blocks for the opening Request. This is the only phase that
// can fail before any round has begun.
func (s *Session) awaitRequest() (protocol.Request, error) {
	buf := make([]byte, protocol.RequestLen)
	if err := s.readFull(buf); err != nil {
		return protocol.Request{}, fmt.Errorf("awaiting request: %w", err)
	}
	req, err := protocol.DecodeRequest(buf)
	if err != nil {
		return protocol.Request{}, fmt.Errorf("decoding request: %w", err)
	}
	return req, nil
}

// playRound runs one full round on a brand-new deck. Re-dealing a fresh
// deck every round keeps rounds statistically independent and rules out
// cross-round exhaustion bugs.
func (s *Session) playRound() error {
	s.phase = PhaseDealing
	deck := newDeck()

	var player, dealer []game.Card
	for i := 0; i < 2; i++ {
		c, err := deck.Draw()
		if err != nil {
			return fmt.Errorf("dealing player: %w", err)
		}
		player = append(player, c)
	}
	for i := 0; i < 2; i++ {
		c, err := deck.Draw()
		if err != nil {
			return fmt.Errorf("dealing dealer: %w", err)
		}
		dealer = append(dealer, c)
	}

	// Both player cards go out, but only the dealer's up card; the hole
	// card stays withheld until the dealer's turn.
	if err := s.sendCard(player[0]); err != nil {
		return err
	}
	if err := s.sendCard(player[1]); err != nil {
		return err
	}
	if err := s.sendCard(dealer[0]); err != nil {
		return err
	}

	s.phase = PhasePlayerTurn
	playerBusted := false
playerTurn:
	for {
		decision, err := s.recvDecision()
		if err != nil {
			return err
		}
		switch decision {
		case protocol.DecisionHit:
			c, err := deck.Draw()
			if err != nil {
				return fmt.Errorf("player hit: %w", err)
			}
			player = append(player, c)
			if err := s.sendCard(c); err != nil {
				return err
			}
			if game.IsBust(game.HandValue(player)) {
				playerBusted = true
				break playerTurn
			}
		case protocol.DecisionStand:
			break playerTurn
		}
	}

	// The dealer does not play out a busted player's hand.
	if !playerBusted {
		s.phase = PhaseDealerTurn
		if err := s.sendCard(dealer[1]); err != nil {
			return err
		}
		for game.DealerShouldHit(game.HandValue(dealer)) {
			c, err := deck.Draw()
			if err != nil {
				return fmt.Errorf("dealer hit: %w", err)
			}
			dealer = append(dealer, c)
			if err := s.sendCard(c); err != nil {
				return err
			}
		}
	}

	s.phase = PhaseResolving
	playerValue := game.HandValue(player)
	dealerValue := game.HandValue(dealer)
	outcome := game.Resolve(playerValue, game.IsBust(playerValue), dealerValue, game.IsBust(dealerValue))

	if err := s.sendResult(outcome); err != nil {
		return err
	}

	switch outcome {
	case game.OutcomeWin:
		s.stats.Wins++
	case game.OutcomeLoss:
		s.stats.Losses++
	case game.OutcomeTie:
		s.stats.Ties++
	}
	s.stats.RoundsCompleted++

	s.log.Debug("round resolved",
		zap.Int("round", s.stats.RoundsCompleted),
		zap.Int("player_value", playerValue),
		zap.Int("dealer_value", dealerValue),
		zap.Stringer("outcome", outcome))
	if s.hooks.RoundResolved != nil {
		s.hooks.RoundResolved(s.stats.TeamName, outcome)
	}
	return nil
}

// recvDecision reads one Payload from the client and extracts a hit/stand.
// Any other content is a protocol violation.
func (s *Session) recvDecision() (protocol.Decision, error) {
	buf := make([]byte, protocol.PayloadLen)
	if err := s.readFull(buf); err != nil {
		return protocol.DecisionNone, fmt.Errorf("awaiting decision: %w", err)
	}
	p, err := protocol.DecodePayload(buf)
	if err != nil {
		return protocol.DecisionNone, fmt.Errorf("decoding decision: %w", err)
	}
	if p.Decision != protocol.DecisionHit && p.Decision != protocol.DecisionStand {
		return protocol.DecisionNone, fmt.Errorf("awaiting decision: %w", protocol.ErrBadDecision)
	}
	return p.Decision, nil
}

// sendCard transmits one card as a round-not-over payload.
func (s *Session) sendCard(c game.Card) error {
	return s.sendPayload(protocol.Payload{
		Result:   protocol.ResultRoundNotOver,
		CardRank: uint16(c.Rank),
		CardSuit: uint8(c.Suit),
	})
}

// sendResult transmits the round verdict. The card field is a neutral 0/0.
func (s *Session) sendResult(o game.Outcome) error {
	var res protocol.Result
	switch o {
	case game.OutcomeWin:
		res = protocol.ResultWin
	case game.OutcomeLoss:
		res = protocol.ResultLoss
	default:
		res = protocol.ResultTie
	}
	return s.sendPayload(protocol.Payload{Result: res})
}

func (s *Session) sendPayload(p protocol.Payload) error {
	frame, err := protocol.EncodePayload(p)
	if err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.recvTimeout)); err != nil {
		return err
	}
	if _, err := s.conn.Write(frame); err != nil {
		return mapNetErr(err)
	}
	return nil
}

// readFull reads exactly len(buf) bytes under the session's receive bound.
func (s *Session) readFull(buf []byte) error {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.recvTimeout)); err != nil {
		return err
	}
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return mapNetErr(err)
	}
	return nil
}

// mapNetErr folds transport errors into the protocol error taxonomy.
func mapNetErr(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return protocol.ErrPeerClosed
	case errors.Is(err, os.ErrDeadlineExceeded):
		return protocol.ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return protocol.ErrTimeout
	}
	return err
}
