// Package config collects every tunable in one place. Values load from the
// environment (optionally seeded from a .env file) with defaults matching
// the protocol contract. The discovery port and magic cookie are the
// protocol-wide constants every peer must agree on; everything else is
// local policy.
package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// OfferPort is the well-known UDP port every client listens on and every
// server broadcasts to. Hardcoded across all peers; changing it breaks
// interop with everyone else's builds.
const OfferPort = 13122

type Config struct {
	// ServerName goes out in every Offer (truncated to 32 bytes on the wire).
	ServerName string
	// BroadcastAddr is the discovery destination host.
	BroadcastAddr string
	// DiscoveryPort is OfferPort everywhere except tests, which point it at
	// an ephemeral listener.
	DiscoveryPort int
	// BroadcastInterval is the pause between Offer datagrams.
	BroadcastInterval time.Duration
	// RecvTimeout bounds every wait for an expected session message.
	RecvTimeout time.Duration
	// TCPPort is the session listen port; 0 lets the OS pick, which is the
	// normal mode since the Offer carries the chosen port to clients.
	TCPPort int
	// HTTPAddr is where the observer API serves; empty disables it.
	HTTPAddr string
}

// Load reads .env if present, then the environment, falling back to
// defaults. Malformed values fall back rather than fail: a server with a
// default interval beats no server on a LAN game night.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServerName:        envStr("LANJACK_SERVER_NAME", "lanjack-dealer"),
		BroadcastAddr:     envStr("LANJACK_BROADCAST_ADDR", "255.255.255.255"),
		DiscoveryPort:     OfferPort,
		BroadcastInterval: envDuration("LANJACK_BROADCAST_INTERVAL", time.Second),
		RecvTimeout:       envDuration("LANJACK_RECV_TIMEOUT", 5*time.Second),
		TCPPort:           envInt("LANJACK_TCP_PORT", 0),
		HTTPAddr:          envStr("LANJACK_HTTP_ADDR", ":8080"),
	}
}

// BroadcastTarget is the host:port discovery destination.
func (c Config) BroadcastTarget() string {
	return net.JoinHostPort(c.BroadcastAddr, strconv.Itoa(c.DiscoveryPort))
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
