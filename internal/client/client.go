// Package client drives the player side of a session: send the Request,
// then mirror the server's state machine round by round. The caller
// supplies the decisions (a human at a terminal, or a strategy in tests)
// and receives round events for rendering; this package renders nothing.
package client

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

// DecisionFunc is asked once per player turn. It sees the player's current
// hand and value plus the dealer's up card and must return DecisionHit or
// DecisionStand.
type DecisionFunc func(player []game.Card, playerValue int, dealerUp game.Card) protocol.Decision

// Hooks deliver round events for rendering. All fields may be nil.
type Hooks struct {
	PlayerCard  func(c game.Card, handValue int)
	DealerCard  func(c game.Card)
	RoundResult func(round int, result protocol.Result)
}

// Totals are the client-side counters across one visit.
type Totals struct {
	RoundsPlayed int
	Wins         int
	Losses       int
	Ties         int
}

// Client plays one visit over an established connection.
type Client struct {
	conn        net.Conn
	recvTimeout time.Duration
	log         *zap.Logger

	totals Totals
}

// New wraps a connection to a discovered server. recvTimeout bounds every
// wait for a server message.
func New(conn net.Conn, recvTimeout time.Duration, log *zap.Logger) *Client {
	return &Client{conn: conn, recvTimeout: recvTimeout, log: log}
}

// Totals returns a copy of the running counters; valid even after an
// aborted visit.
func (c *Client) Totals() Totals { return c.totals }

// Play sends the Request and plays every round, closing the connection on
// return. Decisions come from decide, round events go to hooks.
func (c *Client) Play(team string, rounds uint8, decide DecisionFunc, hooks Hooks) (Totals, error) {
	defer c.conn.Close()

	frame := protocol.EncodeRequest(protocol.Request{Rounds: rounds, TeamName: team})
	if _, err := c.conn.Write(frame); err != nil {
		return c.totals, fmt.Errorf("sending request: %w", mapNetErr(err))
	}
	c.log.Info("session requested", zap.String("team", team), zap.Uint8("rounds", rounds))

	for round := 1; round <= int(rounds); round++ {
		if err := c.playRound(round, decide, hooks); err != nil {
			return c.totals, fmt.Errorf("round %d: %w", round, err)
		}
	}
	return c.totals, nil
}

func (c *Client) playRound(round int, decide DecisionFunc, hooks Hooks) error {
	var player []game.Card

	// Opening deal: two player cards, then the dealer's up card.
	for i := 0; i < 2; i++ {
		card, err := c.recvCard()
		if err != nil {
			return err
		}
		player = append(player, card)
		if hooks.PlayerCard != nil {
			hooks.PlayerCard(card, game.HandValue(player))
		}
	}
	dealerUp, err := c.recvCard()
	if err != nil {
		return err
	}
	if hooks.DealerCard != nil {
		hooks.DealerCard(dealerUp)
	}

	// Player turn: decide, send, and on a hit consume the dealt card.
	for {
		decision := decide(player, game.HandValue(player), dealerUp)
		if decision != protocol.DecisionHit && decision != protocol.DecisionStand {
			return protocol.ErrBadDecision
		}
		if err := c.sendDecision(decision); err != nil {
			return err
		}
		if decision == protocol.DecisionStand {
			break
		}

		card, err := c.recvCard()
		if err != nil {
			return err
		}
		player = append(player, card)
		if hooks.PlayerCard != nil {
			hooks.PlayerCard(card, game.HandValue(player))
		}
		if game.IsBust(game.HandValue(player)) {
			// The server resolves a bust without a dealer turn.
			return c.recvResult(round, hooks)
		}
	}

	// Dealer turn: hole card and hits stream in until the verdict.
	for {
		p, err := c.recvPayload()
		if err != nil {
			return err
		}
		if p.Result != protocol.ResultRoundNotOver {
			return c.recordResult(round, p.Result, hooks)
		}
		card := game.Card{Rank: int(p.CardRank), Suit: int(p.CardSuit)}
		if hooks.DealerCard != nil {
			hooks.DealerCard(card)
		}
	}
}

func (c *Client) recvResult(round int, hooks Hooks) error {
	p, err := c.recvPayload()
	if err != nil {
		return err
	}
	if p.Result == protocol.ResultRoundNotOver {
		return fmt.Errorf("expected round result, got card update")
	}
	return c.recordResult(round, p.Result, hooks)
}

func (c *Client) recordResult(round int, result protocol.Result, hooks Hooks) error {
	switch result {
	case protocol.ResultWin:
		c.totals.Wins++
	case protocol.ResultLoss:
		c.totals.Losses++
	case protocol.ResultTie:
		c.totals.Ties++
	}
	c.totals.RoundsPlayed++
	c.log.Debug("round finished", zap.Int("round", round), zap.Stringer("result", result))
	if hooks.RoundResult != nil {
		hooks.RoundResult(round, result)
	}
	return nil
}

// recvCard expects the next payload to be a card update.
func (c *Client) recvCard() (game.Card, error) {
	p, err := c.recvPayload()
	if err != nil {
		return game.Card{}, err
	}
	if p.Result != protocol.ResultRoundNotOver {
		return game.Card{}, fmt.Errorf("expected card update, got result %v", p.Result)
	}
	return game.Card{Rank: int(p.CardRank), Suit: int(p.CardSuit)}, nil
}

func (c *Client) recvPayload() (protocol.Payload, error) {
	buf := make([]byte, protocol.PayloadLen)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.recvTimeout)); err != nil {
		return protocol.Payload{}, err
	}
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return protocol.Payload{}, mapNetErr(err)
	}
	return protocol.DecodePayload(buf)
}

func (c *Client) sendDecision(d protocol.Decision) error {
	frame, err := protocol.EncodePayload(protocol.Payload{Decision: d})
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.recvTimeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write(frame); err != nil {
		return mapNetErr(err)
	}
	return nil
}

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
