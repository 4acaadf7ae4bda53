// Package server runs the accept side: it owns the TCP listener, starts
// one session goroutine per accepted connection and owns the offer
// broadcaster's lifecycle. Stopping the supervisor stops accepting and
// broadcasting; sessions already in flight run to their own end.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"lanjack/internal/config"
	"lanjack/internal/discovery"
	"lanjack/internal/game"
	"lanjack/internal/hub"
	"lanjack/internal/protocol"
	"lanjack/internal/session"
)

type Supervisor struct {
	cfg config.Config
	hub *hub.Hub
	log *zap.Logger

	ln          *net.TCPListener
	broadcaster *discovery.Broadcaster
	acceptDone  chan struct{}
	sessions    sync.WaitGroup
}

func New(cfg config.Config, h *hub.Hub, log *zap.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, hub: h, log: log}
}

// Start binds the session listener, announces its port over discovery and
// begins accepting. The listen port is OS-assigned unless pinned in config;
// clients learn it solely from the Offer.
func (s *Supervisor) Start() error {
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{Port: s.cfg.TCPPort})
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.ln = ln

	offer := protocol.Offer{
		TCPPort:    uint16(s.Port()),
		ServerName: s.cfg.ServerName,
	}
	s.broadcaster = discovery.NewBroadcaster(offer, s.cfg.BroadcastTarget(), s.cfg.BroadcastInterval, s.log.Named("discovery"))
	if err := s.broadcaster.Start(); err != nil {
		_ = ln.Close()
		return err
	}

	s.acceptDone = make(chan struct{})
	go s.acceptLoop()

	s.log.Info("accepting sessions", zap.Int("port", s.Port()))
	return nil
}

// Port reports the bound session port.
func (s *Supervisor) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Stop closes the listener and halts the broadcaster, then waits for the
// accept loop. In-progress sessions are deliberately not cancelled; they
// finish or hit their own timeouts.
func (s *Supervisor) Stop() {
	s.broadcaster.Stop()
	_ = s.ln.Close()
	<-s.acceptDone
}

// Wait blocks until every session goroutine has finished. Useful after
// Stop for a drain-then-exit shutdown.
func (s *Supervisor) Wait() {
	s.sessions.Wait()
}

func (s *Supervisor) acceptLoop() {
	defer close(s.acceptDone)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Per-accept failures must not kill the loop.
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		remote := conn.RemoteAddr().String()
		s.hub.Inbox() <- hub.SessionStarted{Remote: remote}
		s.log.Info("client connected", zap.String("remote", remote))

		sess := session.New(conn, s.cfg.RecvTimeout, s.sessionHooks(), s.log.Named("session").With(zap.String("remote", remote)))

		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			// Session errors abort that session only; Run has already
			// logged them and the hub has been told via Closed.
			_ = sess.Run()
		}()
	}
}

func (s *Supervisor) sessionHooks() session.Hooks {
	return session.Hooks{
		RoundResolved: func(team string, outcome game.Outcome) {
			s.hub.Inbox() <- hub.RoundResolved{Team: team, Outcome: outcome}
		},
		Closed: func(stats session.Stats, aborted bool) {
			s.hub.Inbox() <- hub.SessionEnded{Stats: stats, Aborted: aborted}
		},
	}
}
