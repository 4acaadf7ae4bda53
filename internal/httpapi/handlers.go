// Package httpapi is the read-only observer surface: health, a JSON stats
// snapshot and the websocket feed. It never touches game state directly;
// everything goes through the hub.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"lanjack/internal/hub"
	"lanjack/pkg/types"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Stats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan hub.Snapshot, 1)
		h.Inbox() <- hub.GetState{Reply: reply}

		select {
		case snap := <-reply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(types.ServerMessage{
				Type:    "StatsSnapshot",
				Version: snap.Version,
				Stats:   &snap.Stats,
			})
		case <-time.After(2 * time.Second):
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
		}
	}
}
