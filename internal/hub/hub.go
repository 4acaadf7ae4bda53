// Package hub aggregates what every session reports into server-wide
// counters and fans versioned snapshots out to observers. It is a single
// actor goroutine fed through a typed inbox, so sessions never share
// mutable state with each other or with the observers.
package hub

import (
	"context"

	"lanjack/internal/game"
	"lanjack/internal/session"
	"lanjack/pkg/types"
)

type Msg interface{ isHubMsg() }

// SessionStarted is posted when the supervisor accepts a connection.
type SessionStarted struct {
	Remote string
}

// RoundResolved is posted once per finished round.
type RoundResolved struct {
	Team    string
	Outcome game.Outcome
}

// SessionEnded is posted exactly once per session, clean or aborted.
type SessionEnded struct {
	Stats   session.Stats
	Aborted bool
}

// Join subscribes an observer; it immediately receives the current snapshot
// on Outbox and every later snapshot until it leaves or falls behind.
type Join struct {
	ObserverID string
	Outbox     chan Snapshot
}

// Leave unsubscribes an observer.
type Leave struct {
	ObserverID string
}

// GetState replies with the current snapshot; used by handlers and tests to
// read state without racing the loop.
type GetState struct {
	Reply chan Snapshot
}

// Shutdown closes every observer outbox and stops the loop.
type Shutdown struct{}

func (SessionStarted) isHubMsg() {}
func (RoundResolved) isHubMsg()  {}
func (SessionEnded) isHubMsg()   {}
func (Join) isHubMsg()           {}
func (Leave) isHubMsg()          {}
func (GetState) isHubMsg()       {}
func (Shutdown) isHubMsg()       {}

// Snapshot is one versioned view of the aggregate stats. Version increments
// on every change, so observers can spot gaps.
type Snapshot struct {
	Version int
	Stats   types.ServerStats
}

type Hub struct {
	inbox     chan Msg
	observers map[string]chan Snapshot
	version   int
	stats     types.ServerStats
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:     make(chan Msg, 64),
		observers: make(map[string]chan Snapshot),
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case SessionStarted:
				h.stats.SessionsActive++
				h.bump()

			case RoundResolved:
				h.stats.RoundsPlayed++
				switch msg.Outcome {
				case game.OutcomeWin:
					h.stats.PlayerWins++
				case game.OutcomeLoss:
					h.stats.PlayerLosses++
				case game.OutcomeTie:
					h.stats.PlayerTies++
				}
				h.bump()

			case SessionEnded:
				h.stats.SessionsActive--
				if msg.Aborted {
					h.stats.SessionsAborted++
				} else {
					h.stats.SessionsCompleted++
				}
				h.bump()

			case Join:
				h.observers[msg.ObserverID] = msg.Outbox
				msg.Outbox <- h.snapshot()

			case Leave:
				delete(h.observers, msg.ObserverID)

			case GetState:
				msg.Reply <- h.snapshot()

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) snapshot() Snapshot {
	return Snapshot{Version: h.version, Stats: h.stats}
}

// bump versions the change and broadcasts it.
func (h *Hub) bump() {
	h.version++
	snap := h.snapshot()
	for id, ch := range h.observers {
		select {
		case ch <- snap:
		default:
			// Observer is slow or full; drop it rather than block
			// the stats loop.
			close(ch)
			delete(h.observers, id)
		}
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.observers {
		close(ch)
		delete(h.observers, id)
	}
	h.cancel()
}
