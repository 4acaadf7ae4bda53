package client

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"lanjack/internal/game"
	"lanjack/internal/protocol"
)

// fakeServer speaks raw frames over the pipe so the client is tested
// against exact bytes, independent of the real session implementation.
type fakeServer struct {
	t    *testing.T
	conn net.Conn
}

func (f *fakeServer) expectRequest(rounds uint8, team string) {
	f.t.Helper()
	buf := make([]byte, protocol.RequestLen)
	if _, err := io.ReadFull(f.conn, buf); err != nil {
		f.t.Errorf("read request: %v", err)
		return
	}
	req, err := protocol.DecodeRequest(buf)
	if err != nil {
		f.t.Errorf("decode request: %v", err)
		return
	}
	if req.Rounds != rounds || req.TeamName != team {
		f.t.Errorf("request: got %+v", req)
	}
}

func (f *fakeServer) sendCard(c game.Card) {
	f.t.Helper()
	frame, err := protocol.EncodePayload(protocol.Payload{
		Result:   protocol.ResultRoundNotOver,
		CardRank: uint16(c.Rank),
		CardSuit: uint8(c.Suit),
	})
	if err != nil {
		f.t.Errorf("encode card: %v", err)
		return
	}
	if _, err := f.conn.Write(frame); err != nil {
		f.t.Errorf("write card: %v", err)
	}
}

func (f *fakeServer) sendResult(r protocol.Result) {
	f.t.Helper()
	frame, err := protocol.EncodePayload(protocol.Payload{Result: r})
	if err != nil {
		f.t.Errorf("encode result: %v", err)
		return
	}
	if _, err := f.conn.Write(frame); err != nil {
		f.t.Errorf("write result: %v", err)
	}
}

func (f *fakeServer) expectDecision(want protocol.Decision) {
	f.t.Helper()
	buf := make([]byte, protocol.PayloadLen)
	if _, err := io.ReadFull(f.conn, buf); err != nil {
		f.t.Errorf("read decision: %v", err)
		return
	}
	p, err := protocol.DecodePayload(buf)
	if err != nil {
		f.t.Errorf("decode decision: %v", err)
		return
	}
	if p.Decision != want {
		f.t.Errorf("decision: got %v, want %v", p.Decision, want)
	}
}

func alwaysStand([]game.Card, int, game.Card) protocol.Decision {
	return protocol.DecisionStand
}

func TestClientStandRound(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	f := &fakeServer{t: t, conn: serverConn}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.expectRequest(1, "Alpha")
		f.sendCard(game.Card{Rank: game.RankAce, Suit: game.SuitSpades})
		f.sendCard(game.Card{Rank: 6, Suit: game.SuitHearts})
		f.sendCard(game.Card{Rank: 6, Suit: game.SuitClubs})
		f.expectDecision(protocol.DecisionStand)
		f.sendCard(game.Card{Rank: 10, Suit: game.SuitDiamonds}) // hole card
		f.sendCard(game.Card{Rank: 2, Suit: game.SuitClubs})     // dealer hit
		f.sendResult(protocol.ResultLoss)
	}()

	var playerCards, dealerCards []game.Card
	var results []protocol.Result
	hooks := Hooks{
		PlayerCard:  func(c game.Card, _ int) { playerCards = append(playerCards, c) },
		DealerCard:  func(c game.Card) { dealerCards = append(dealerCards, c) },
		RoundResult: func(_ int, r protocol.Result) { results = append(results, r) },
	}

	cl := New(clientConn, time.Second, zap.NewNop())
	totals, err := cl.Play("Alpha", 1, alwaysStand, hooks)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	<-done

	want := Totals{RoundsPlayed: 1, Losses: 1}
	if totals != want {
		t.Fatalf("totals: got %+v, want %+v", totals, want)
	}
	if len(playerCards) != 2 || len(dealerCards) != 3 {
		t.Fatalf("cards seen: player %d, dealer %d", len(playerCards), len(dealerCards))
	}
	if len(results) != 1 || results[0] != protocol.ResultLoss {
		t.Fatalf("results: got %v", results)
	}
}

func TestClientHitUntilBust(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	f := &fakeServer{t: t, conn: serverConn}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.expectRequest(1, "Bravo")
		f.sendCard(game.Card{Rank: game.RankKing, Suit: 0})
		f.sendCard(game.Card{Rank: game.RankQueen, Suit: 1})
		f.sendCard(game.Card{Rank: 9, Suit: 2})
		f.expectDecision(protocol.DecisionHit)
		f.sendCard(game.Card{Rank: 5, Suit: 3}) // 25, bust
		f.sendResult(protocol.ResultLoss)
	}()

	hit := func([]game.Card, int, game.Card) protocol.Decision { return protocol.DecisionHit }

	cl := New(clientConn, time.Second, zap.NewNop())
	totals, err := cl.Play("Bravo", 1, hit, Hooks{})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	<-done

	if totals.Losses != 1 || totals.RoundsPlayed != 1 {
		t.Fatalf("totals: got %+v", totals)
	}
}

func TestClientMultiRoundTotals(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	f := &fakeServer{t: t, conn: serverConn}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.expectRequest(3, "Charlie")
		for _, res := range []protocol.Result{protocol.ResultWin, protocol.ResultTie, protocol.ResultLoss} {
			f.sendCard(game.Card{Rank: 10, Suit: 0})
			f.sendCard(game.Card{Rank: 9, Suit: 1})
			f.sendCard(game.Card{Rank: 7, Suit: 2})
			f.expectDecision(protocol.DecisionStand)
			f.sendCard(game.Card{Rank: game.RankKing, Suit: 3}) // hole card
			f.sendResult(res)
		}
	}()

	cl := New(clientConn, time.Second, zap.NewNop())
	totals, err := cl.Play("Charlie", 3, alwaysStand, Hooks{})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	<-done

	want := Totals{RoundsPlayed: 3, Wins: 1, Losses: 1, Ties: 1}
	if totals != want {
		t.Fatalf("totals: got %+v, want %+v", totals, want)
	}
}

func TestClientAbortKeepsTotals(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	f := &fakeServer{t: t, conn: serverConn}

	go func() {
		f.expectRequest(2, "Delta")
		f.sendCard(game.Card{Rank: 10, Suit: 0})
		f.sendCard(game.Card{Rank: 9, Suit: 1})
		f.sendCard(game.Card{Rank: 7, Suit: 2})
		f.expectDecision(protocol.DecisionStand)
		f.sendCard(game.Card{Rank: game.RankKing, Suit: 3})
		f.sendResult(protocol.ResultWin)
		// Server dies before round two.
		_ = serverConn.Close()
	}()

	cl := New(clientConn, time.Second, zap.NewNop())
	totals, err := cl.Play("Delta", 2, alwaysStand, Hooks{})
	if !errors.Is(err, protocol.ErrPeerClosed) {
		t.Fatalf("got %v, want ErrPeerClosed", err)
	}
	if totals.Wins != 1 || totals.RoundsPlayed != 1 {
		t.Fatalf("totals after abort: got %+v", totals)
	}
}

func TestClientTimesOutOnSilentServer(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go func() {
		buf := make([]byte, protocol.RequestLen)
		_, _ = io.ReadFull(serverConn, buf)
		// Then say nothing.
	}()

	cl := New(clientConn, 50*time.Millisecond, zap.NewNop())
	_, err := cl.Play("Echo", 1, alwaysStand, Hooks{})
	if !errors.Is(err, protocol.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}
