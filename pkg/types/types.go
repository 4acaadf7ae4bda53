// Package types defines the JSON shapes of the observer feed: what the
// stats endpoint returns and what the websocket streams. The game wire
// protocol itself is binary and lives in internal/protocol.
package types

// ServerStats are the aggregate counters across all sessions since start.
// Win/loss/tie are counted from the players' perspective.
type ServerStats struct {
	SessionsActive    int `json:"sessions_active"`
	SessionsCompleted int `json:"sessions_completed"`
	SessionsAborted   int `json:"sessions_aborted"`
	RoundsPlayed      int `json:"rounds_played"`
	PlayerWins        int `json:"player_wins"`
	PlayerLosses      int `json:"player_losses"`
	PlayerTies        int `json:"player_ties"`
}

// ServerMessage is one frame of the observer websocket feed.
type ServerMessage struct {
	Type    string       `json:"type"` // "StatsSnapshot" | "Error"
	Version int          `json:"version,omitempty"`
	Stats   *ServerStats `json:"stats,omitempty"`
	Error   string       `json:"error,omitempty"`
}
