package discovery

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"lanjack/internal/protocol"
)

// Entry is one received offer plus where and when it arrived. Repeated
// offers from the same server are surfaced as separate entries; staleness
// is the consumer's concern.
type Entry struct {
	Offer protocol.Offer
	Addr  *net.UDPAddr
	Time  time.Time
}

// Listener binds the well-known discovery port and delivers decoded offers
// on Entries. Datagrams that fail validation are dropped silently; a bad
// packet never stops the loop.
type Listener struct {
	port    int
	log     *zap.Logger
	conn    *net.UDPConn
	entries chan Entry
}

// NewListener prepares a listener for the given UDP port. Port 0 binds an
// ephemeral port, which tests use; real clients bind the well-known one.
func NewListener(port int, log *zap.Logger) *Listener {
	return &Listener{
		port:    port,
		log:     log,
		entries: make(chan Entry, 16),
	}
}

// Start binds the port and launches the receive loop.
func (l *Listener) Start() error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: l.port})
	if err != nil {
		return fmt.Errorf("bind discovery port %d: %w", l.port, err)
	}
	l.conn = conn
	go l.loop()

	l.log.Info("listening for offers", zap.Int("port", l.Port()))
	return nil
}

// Port reports the bound UDP port.
func (l *Listener) Port() int {
	return l.conn.LocalAddr().(*net.UDPAddr).Port
}

// Entries is the stream of received offers.
func (l *Listener) Entries() <-chan Entry {
	return l.entries
}

// Close stops the receive loop and closes Entries once the loop exits.
func (l *Listener) Close() error {
	return l.conn.Close()
}

func (l *Listener) loop() {
	defer close(l.entries)

	buf := make([]byte, 1024)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Warn("discovery read failed", zap.Error(err))
			continue
		}

		offer, err := protocol.DecodeOffer(buf[:n])
		if err != nil {
			l.log.Debug("discarding bad datagram",
				zap.Stringer("from", addr), zap.Error(err))
			continue
		}

		entry := Entry{Offer: offer, Addr: addr, Time: time.Now()}
		select {
		case l.entries <- entry:
		default:
			// Consumer is not keeping up; offers repeat every
			// interval, so dropping this one loses nothing.
			l.log.Debug("offer dropped, entries channel full")
		}
	}
}
