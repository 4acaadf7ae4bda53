package server

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"lanjack/internal/client"
	"lanjack/internal/config"
	"lanjack/internal/discovery"
	"lanjack/internal/game"
	"lanjack/internal/hub"
	"lanjack/internal/protocol"
)

func testConfig(discoveryPort int) config.Config {
	return config.Config{
		ServerName:        "test-dealer",
		BroadcastAddr:     "127.0.0.1",
		DiscoveryPort:     discoveryPort,
		BroadcastInterval: 50 * time.Millisecond,
		RecvTimeout:       2 * time.Second,
	}
}

func getState(t *testing.T, h *hub.Hub) hub.Snapshot {
	t.Helper()
	reply := make(chan hub.Snapshot, 1)
	h.Inbox() <- hub.GetState{Reply: reply}
	select {
	case snap := <-reply:
		return snap
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for hub state")
		return hub.Snapshot{} // unreachable
	}
}

// waitForStats polls the hub until check passes or the deadline hits.
func waitForStats(t *testing.T, h *hub.Hub, check func(hub.Snapshot) bool) hub.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := getState(t, h)
		if check(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached expected state, last: %+v", snap.Stats)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestDiscoverConnectPlay runs the full loop on loopback: the client hears
// the broadcast offer, dials the advertised port and plays its rounds.
func TestDiscoverConnectPlay(t *testing.T) {
	lst := discovery.NewListener(0, zap.NewNop())
	if err := lst.Start(); err != nil {
		t.Fatalf("listener: %v", err)
	}
	defer lst.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx)

	sup := New(testConfig(lst.Port()), h, zap.NewNop())
	if err := sup.Start(); err != nil {
		t.Fatalf("start supervisor: %v", err)
	}
	defer sup.Stop()

	var entry discovery.Entry
	select {
	case entry = <-lst.Entries():
	case <-time.After(2 * time.Second):
		t.Fatalf("no offer received")
	}
	if entry.Offer.ServerName != "test-dealer" {
		t.Fatalf("offer name: got %q", entry.Offer.ServerName)
	}
	if int(entry.Offer.TCPPort) != sup.Port() {
		t.Fatalf("offer port: got %d, want %d", entry.Offer.TCPPort, sup.Port())
	}

	conn, err := net.Dial("tcp4", fmt.Sprintf("127.0.0.1:%d", entry.Offer.TCPPort))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	stand := func([]game.Card, int, game.Card) protocol.Decision { return protocol.DecisionStand }
	cl := client.New(conn, 2*time.Second, zap.NewNop())
	totals, err := cl.Play("Integrators", 3, stand, client.Hooks{})
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	if totals.RoundsPlayed != 3 {
		t.Fatalf("rounds played: got %d, want 3", totals.RoundsPlayed)
	}
	if totals.Wins+totals.Losses+totals.Ties != 3 {
		t.Fatalf("totals do not add up: %+v", totals)
	}

	snap := waitForStats(t, h, func(s hub.Snapshot) bool {
		return s.Stats.SessionsCompleted == 1
	})
	if snap.Stats.RoundsPlayed != 3 {
		t.Fatalf("hub rounds: got %d, want 3", snap.Stats.RoundsPlayed)
	}
	if snap.Stats.PlayerWins != totals.Wins || snap.Stats.PlayerLosses != totals.Losses || snap.Stats.PlayerTies != totals.Ties {
		t.Fatalf("hub stats %+v do not match client totals %+v", snap.Stats, totals)
	}
}

// TestSessionsAreIndependent runs two clients concurrently and breaks one
// of them mid-session; the other must finish untouched.
func TestSessionsAreIndependent(t *testing.T) {
	lst := discovery.NewListener(0, zap.NewNop())
	if err := lst.Start(); err != nil {
		t.Fatalf("listener: %v", err)
	}
	defer lst.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx)

	cfg := testConfig(lst.Port())
	cfg.RecvTimeout = 200 * time.Millisecond
	sup := New(cfg, h, zap.NewNop())
	if err := sup.Start(); err != nil {
		t.Fatalf("start supervisor: %v", err)
	}
	defer sup.Stop()

	addr := fmt.Sprintf("127.0.0.1:%d", sup.Port())

	// Deserter sends its request and goes silent; its session times out.
	deserter, err := net.Dial("tcp4", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer deserter.Close()
	if _, err := deserter.Write(protocol.EncodeRequest(protocol.Request{Rounds: 5, TeamName: "Deserter"})); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn, err := net.Dial("tcp4", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	stand := func([]game.Card, int, game.Card) protocol.Decision { return protocol.DecisionStand }
	cl := client.New(conn, 2*time.Second, zap.NewNop())
	totals, err := cl.Play("Steady", 2, stand, client.Hooks{})
	if err != nil {
		t.Fatalf("steady client failed: %v", err)
	}
	if totals.RoundsPlayed != 2 {
		t.Fatalf("steady rounds: got %d, want 2", totals.RoundsPlayed)
	}

	snap := waitForStats(t, h, func(s hub.Snapshot) bool {
		return s.Stats.SessionsCompleted == 1 && s.Stats.SessionsAborted == 1
	})
	if snap.Stats.SessionsActive != 0 {
		t.Fatalf("active sessions: got %d, want 0", snap.Stats.SessionsActive)
	}
}

// TestStopHaltsAcceptAndBroadcast verifies the supervisor's shutdown
// contract: no new connections, no further offers.
func TestStopHaltsAcceptAndBroadcast(t *testing.T) {
	lst := discovery.NewListener(0, zap.NewNop())
	if err := lst.Start(); err != nil {
		t.Fatalf("listener: %v", err)
	}
	defer lst.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx)

	sup := New(testConfig(lst.Port()), h, zap.NewNop())
	if err := sup.Start(); err != nil {
		t.Fatalf("start supervisor: %v", err)
	}
	port := sup.Port()
	sup.Stop()
	sup.Wait()

	if _, err := net.DialTimeout("tcp4", fmt.Sprintf("127.0.0.1:%d", port), 500*time.Millisecond); err == nil {
		t.Fatalf("dial succeeded after Stop")
	}

	// Drain anything broadcast before Stop, then expect silence.
	for {
		select {
		case <-lst.Entries():
			continue
		case <-time.After(300 * time.Millisecond):
		}
		break
	}
	select {
	case e := <-lst.Entries():
		t.Fatalf("offer received after Stop: %+v", e.Offer)
	case <-time.After(300 * time.Millisecond):
	}
}
