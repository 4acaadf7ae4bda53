// Package discovery implements the UDP side of the protocol: servers
// broadcast Offer messages on a fixed interval and clients listen on the
// well-known port, surfacing every validly decoded offer as it arrives.
// Discovery traffic is best-effort; nothing here retries or deduplicates.
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"lanjack/internal/protocol"
)

// Broadcaster periodically announces one server's Offer to the broadcast
// address. Start launches the send loop; Stop halts it and waits for it to
// exit. A failed send is logged and the next tick proceeds regardless.
type Broadcaster struct {
	offer    protocol.Offer
	target   string
	interval time.Duration
	log      *zap.Logger

	conn   *net.UDPConn
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBroadcaster prepares a broadcaster that announces offer to target
// (host:port, typically 255.255.255.255 and the well-known discovery port)
// every interval.
func NewBroadcaster(offer protocol.Offer, target string, interval time.Duration, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		offer:    offer,
		target:   target,
		interval: interval,
		log:      log,
	}
}

// Start opens the UDP socket and launches the announce loop. The first
// offer goes out immediately so freshly started clients discover the server
// without waiting a full interval.
func (b *Broadcaster) Start() error {
	addr, err := net.ResolveUDPAddr("udp4", b.target)
	if err != nil {
		return fmt.Errorf("resolve broadcast target %q: %w", b.target, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("open broadcast socket: %w", err)
	}
	b.conn = conn

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.loop(ctx)

	b.log.Info("broadcasting offers",
		zap.String("target", b.target),
		zap.Uint16("tcp_port", b.offer.TCPPort),
		zap.String("server_name", b.offer.ServerName),
		zap.Duration("interval", b.interval))
	return nil
}

// Stop halts the announce loop and closes the socket. Safe to call once
// after a successful Start.
func (b *Broadcaster) Stop() {
	b.cancel()
	<-b.done
	_ = b.conn.Close()
}

func (b *Broadcaster) loop(ctx context.Context) {
	defer close(b.done)

	frame := protocol.EncodeOffer(b.offer)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if _, err := b.conn.Write(frame); err != nil {
			// One failed send must not stop the loop; the next
			// scheduled broadcast is attempted regardless.
			b.log.Warn("offer broadcast failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
