// Package ws streams stats snapshots to read-only websocket observers.
// Observers subscribe to the hub and receive one JSON frame per snapshot;
// they are not expected to send anything.
package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"lanjack/internal/hub"
	"lanjack/pkg/types"
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan hub.Snapshot, 8)
		observerID := randID(6)

		h.Inbox() <- hub.Join{ObserverID: observerID, Outbox: out}
		defer func() { h.Inbox() <- hub.Leave{ObserverID: observerID} }()

		log.Debug("observer joined", zap.String("observer", observerID))

		// Writer goroutine: one frame per snapshot until the hub closes
		// the outbox or the write context dies.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StatsSnapshot", Version: snap.Version, Stats: &snap.Stats}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop exists only to notice the observer going away.
		for {
			_, _, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
