// Package protocol implements the fixed-layout binary messages exchanged
// between blackjack servers and clients.
//
// Every message starts with the 4-byte magic cookie followed by a 1-byte
// message type. All multi-byte integers are big-endian.
//
//	Offer   (UDP, 39 bytes): magic(4) type(1)=0x2 tcp_port(2) server_name(32)
//	Request (TCP, 38 bytes): magic(4) type(1)=0x3 rounds(1)   team_name(32)
//	Payload (TCP, 14 bytes): magic(4) type(1)=0x4 decision(5) result(1) card(3)
//
// Name fields are NUL-padded to 32 bytes and truncated when longer. The
// Payload frame is identical in both directions; the sender zeroes the
// fields that are not meaningful for its direction (see Decision, Result).
package protocol

import "errors"

// MagicCookie opens every message. Any frame that does not start with it is
// either garbage, corrupt, or from another protocol.
const MagicCookie uint32 = 0xabcddcba

// Message types.
const (
	TypeOffer   byte = 0x2
	TypeRequest byte = 0x3
	TypePayload byte = 0x4
)

// Fixed message and field sizes in bytes.
const (
	OfferLen   = 39
	RequestLen = 38
	PayloadLen = 14

	NameLen     = 32
	decisionLen = 5

	MaxRounds = 255
)

// Decode-time errors. Checks run in this order: length, magic, type, fields.
var (
	ErrTruncated   = errors.New("protocol: message truncated")
	ErrBadMagic    = errors.New("protocol: bad magic cookie")
	ErrUnknownType = errors.New("protocol: unknown message type")
	ErrBadDecision = errors.New("protocol: bad decision token")
	ErrBadResult   = errors.New("protocol: bad result code")
)

// Transport-level errors surfaced by whoever reads frames off a connection.
// They live here so both ends share one error taxonomy.
var (
	ErrTimeout    = errors.New("protocol: timed out waiting for message")
	ErrPeerClosed = errors.New("protocol: peer closed connection")
)

// Decision is the player's move inside a Payload. DecisionNone is what a
// server-to-client frame carries: five zero bytes on the wire.
type Decision byte

const (
	DecisionNone Decision = iota
	DecisionHit
	DecisionStand
)

// Wire tokens for the decision field. Exactly five bytes each.
var (
	tokenNone  = [decisionLen]byte{}
	tokenHit   = [decisionLen]byte{'H', 'i', 't', 't', 't'}
	tokenStand = [decisionLen]byte{'S', 't', 'a', 'n', 'd'}
)

func (d Decision) String() string {
	switch d {
	case DecisionHit:
		return "hit"
	case DecisionStand:
		return "stand"
	default:
		return "none"
	}
}

// Result is the round outcome byte inside a Payload. ResultRoundNotOver
// marks a server-to-client frame as a card update rather than a verdict.
type Result byte

const (
	ResultRoundNotOver Result = 0x0
	ResultTie          Result = 0x1
	ResultLoss         Result = 0x2
	ResultWin          Result = 0x3
)

func (r Result) String() string {
	switch r {
	case ResultRoundNotOver:
		return "round not over"
	case ResultTie:
		return "tie"
	case ResultLoss:
		return "loss"
	case ResultWin:
		return "win"
	default:
		return "invalid"
	}
}

// Offer advertises a server's session endpoint over the discovery channel.
type Offer struct {
	TCPPort    uint16
	ServerName string
}

// Request opens a session: how many rounds the client wants and under what
// display name. Rounds is 1..255; the codec does not police the lower bound,
// a zero-round request simply plays no rounds.
type Request struct {
	Rounds   uint8
	TeamName string
}

// Payload carries one step of in-round traffic. Client frames set Decision
// and zero the rest; server frames set CardRank/CardSuit on card updates
// (Result == ResultRoundNotOver) or Result on verdicts (card fields zero).
type Payload struct {
	Decision Decision
	Result   Result
	CardRank uint16
	CardSuit uint8
}
