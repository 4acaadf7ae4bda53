package protocol

import (
	"bytes"
	"encoding/binary"
)

// EncodeOffer renders an Offer as its 39-byte wire form.
func EncodeOffer(o Offer) []byte {
	buf := make([]byte, OfferLen)
	putHeader(buf, TypeOffer)
	binary.BigEndian.PutUint16(buf[5:7], o.TCPPort)
	putName(buf[7:], o.ServerName)
	return buf
}

// DecodeOffer parses a 39-byte Offer frame.
func DecodeOffer(data []byte) (Offer, error) {
	if len(data) < OfferLen {
		return Offer{}, ErrTruncated
	}
	if err := checkHeader(data, TypeOffer); err != nil {
		return Offer{}, err
	}
	return Offer{
		TCPPort:    binary.BigEndian.Uint16(data[5:7]),
		ServerName: readName(data[7:]),
	}, nil
}

// EncodeRequest renders a Request as its 38-byte wire form.
func EncodeRequest(r Request) []byte {
	buf := make([]byte, RequestLen)
	putHeader(buf, TypeRequest)
	buf[5] = r.Rounds
	putName(buf[6:], r.TeamName)
	return buf
}

// DecodeRequest parses a 38-byte Request frame.
func DecodeRequest(data []byte) (Request, error) {
	if len(data) < RequestLen {
		return Request{}, ErrTruncated
	}
	if err := checkHeader(data, TypeRequest); err != nil {
		return Request{}, err
	}
	return Request{
		Rounds:   data[5],
		TeamName: readName(data[6:]),
	}, nil
}

// EncodePayload renders a Payload as its 14-byte wire form. It fails with
// ErrBadDecision or ErrBadResult if the fields are outside the contract.
func EncodePayload(p Payload) ([]byte, error) {
	tok, ok := decisionToken(p.Decision)
	if !ok {
		return nil, ErrBadDecision
	}
	if p.Result > ResultWin {
		return nil, ErrBadResult
	}
	buf := make([]byte, PayloadLen)
	putHeader(buf, TypePayload)
	copy(buf[5:10], tok[:])
	buf[10] = byte(p.Result)
	binary.BigEndian.PutUint16(buf[11:13], p.CardRank)
	buf[13] = p.CardSuit
	return buf, nil
}

// DecodePayload parses a 14-byte Payload frame.
func DecodePayload(data []byte) (Payload, error) {
	if len(data) < PayloadLen {
		return Payload{}, ErrTruncated
	}
	if err := checkHeader(data, TypePayload); err != nil {
		return Payload{}, err
	}
	var tok [decisionLen]byte
	copy(tok[:], data[5:10])
	dec, ok := parseDecision(tok)
	if !ok {
		return Payload{}, ErrBadDecision
	}
	res := Result(data[10])
	if res > ResultWin {
		return Payload{}, ErrBadResult
	}
	return Payload{
		Decision: dec,
		Result:   res,
		CardRank: binary.BigEndian.Uint16(data[11:13]),
		CardSuit: data[13],
	}, nil
}

func putHeader(buf []byte, msgType byte) {
	binary.BigEndian.PutUint32(buf[0:4], MagicCookie)
	buf[4] = msgType
}

// checkHeader validates magic then type. Callers have already checked the
// length, so the first five bytes are known to exist.
func checkHeader(data []byte, wantType byte) error {
	if binary.BigEndian.Uint32(data[0:4]) != MagicCookie {
		return ErrBadMagic
	}
	if data[4] != wantType {
		return ErrUnknownType
	}
	return nil
}

// putName writes name into a 32-byte NUL-padded field, truncating if longer.
func putName(dst []byte, name string) {
	b := []byte(name)
	if len(b) > NameLen {
		b = b[:NameLen]
	}
	copy(dst[:NameLen], b)
}

// readName strips trailing NUL padding. Names are untrusted display strings,
// so whatever bytes remain are kept as-is rather than rejected.
func readName(src []byte) string {
	return string(bytes.TrimRight(src[:NameLen], "\x00"))
}

func decisionToken(d Decision) ([decisionLen]byte, bool) {
	switch d {
	case DecisionNone:
		return tokenNone, true
	case DecisionHit:
		return tokenHit, true
	case DecisionStand:
		return tokenStand, true
	default:
		return tokenNone, false
	}
}

func parseDecision(tok [decisionLen]byte) (Decision, bool) {
	switch tok {
	case tokenNone:
		return DecisionNone, true
	case tokenHit:
		return DecisionHit, true
	case tokenStand:
		return DecisionStand, true
	default:
		return DecisionNone, false
	}
}
