// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// mtuSize is the size of the receive buffer for ICMP messages.
	mtuSize = 1500
	// protocolICMP is the IANA protocol number of ICMP.
	protocolICMP = 1
	// protocolIPv6ICMP is the IANA protocol number of ICMP for IPv6.
	protocolIPv6ICMP = 58
	// echoHeaderLen is the length of the ICMP echo header that every
	// router quotes back: type, code, checksum, identifier and sequence.
	echoHeaderLen = 8
)

// echoConn is a socket that sends exactly one echo request and waits for its answer.
//
//go:generate go tool moq -out icmp_moq.go . echoConn
type echoConn interface {
	// WriteEcho sends the echo request.
	WriteEcho(ctx context.Context, req echoRequest) error
	// Read blocks until the answer to the last echo request arrives or
	// the context is done. A context that hits its deadline yields
	// [context.DeadlineExceeded].
	Read(ctx context.Context) (icmpPacket, error)
	Close() error
}

// echoRequest is a single ICMP echo request.
type echoRequest struct {
	id      int
	seq     int
	payload []byte
}

// marshal encodes the request as ICMP or ICMPv6 message.
// The checksum of ICMPv6 messages is filled in by the kernel.
func (r echoRequest) marshal(v6 bool) ([]byte, error) {
	var typ icmp.Type = ipv4.ICMPTypeEcho
	if v6 {
		typ = ipv6.ICMPTypeEchoRequest
	}
	msg := icmp.Message{
		Type: typ,
		Code: 0,
		Body: &icmp.Echo{ID: r.id, Seq: r.seq, Data: r.payload},
	}
	b, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal echo request: %w", err)
	}
	return b, nil
}

// matches reports whether the echo identified by id and seq is this request.
// Unprivileged datagram sockets rewrite the identifier, so it is only
// compared when matchID is set.
func (r echoRequest) matches(id, seq int, matchID bool) bool {
	if seq != r.seq&0xffff {
		return false
	}
	return !matchID || id == r.id&0xffff
}

// matchesQuoted reports whether the datagram quoted in an ICMP error
// message is this request. The quote starts with the original IP header.
func (r echoRequest) matchesQuoted(data []byte, matchID bool) bool {
	if len(data) == 0 {
		return false
	}

	var (
		hdrLen   int
		echoType byte
	)
	switch data[0] >> 4 {
	case ipv4.Version:
		if len(data) < ipv4.HeaderLen || data[9] != protocolICMP {
			return false
		}
		hdrLen = int(data[0]&0x0f) << 2
		echoType = byte(ipv4.ICMPTypeEcho)
	case ipv6.Version:
		if len(data) < ipv6.HeaderLen || data[6] != protocolIPv6ICMP {
			return false
		}
		hdrLen = ipv6.HeaderLen
		echoType = byte(ipv6.ICMPTypeEchoRequest)
	default:
		return false
	}

	if hdrLen < ipv4.HeaderLen || len(data) < hdrLen+echoHeaderLen {
		return false
	}
	echo := data[hdrLen : hdrLen+echoHeaderLen]
	if echo[0] != echoType {
		return false
	}

	id := int(binary.BigEndian.Uint16(echo[4:6]))
	seq := int(binary.BigEndian.Uint16(echo[6:8]))
	return r.matches(id, seq, matchID)
}

// icmpKind is the kind of answer to an echo request.
type icmpKind int

const (
	kindEchoReply icmpKind = iota + 1
	kindTimeExceeded
	kindUnreachable
)

// icmpPacket represents a received answer to an echo request.
type icmpPacket struct {
	// remoteAddr is the address of the node that answered.
	// It may be nil if the answer did not carry one.
	remoteAddr net.Addr
	kind       icmpKind
	// code is the ICMP code of the message.
	code int
}

// outcome maps the packet to the outcome of the probe.
func (p icmpPacket) outcome() Outcome {
	switch p.kind {
	case kindEchoReply:
		return OutcomeSuccess
	case kindTimeExceeded:
		return OutcomeTTLExpired
	case kindUnreachable:
		return OutcomeUnreachable
	default:
		return OutcomeOther
	}
}

// newICMPPacket classifies a parsed ICMP message. It returns [errForeignMessage]
// for messages that are not an answer to req.
func newICMPPacket(src net.Addr, msg *icmp.Message, req echoRequest, matchID bool) (*icmpPacket, error) {
	switch msg.Type {
	case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
		echo, ok := msg.Body.(*icmp.Echo)
		if !ok || !req.matches(echo.ID, echo.Seq, matchID) {
			return nil, errForeignMessage
		}
		return &icmpPacket{remoteAddr: src, kind: kindEchoReply, code: msg.Code}, nil
	case ipv4.ICMPTypeTimeExceeded, ipv6.ICMPTypeTimeExceeded:
		body, ok := msg.Body.(*icmp.TimeExceeded)
		if !ok || !req.matchesQuoted(body.Data, matchID) {
			return nil, errForeignMessage
		}
		return &icmpPacket{remoteAddr: src, kind: kindTimeExceeded, code: msg.Code}, nil
	case ipv4.ICMPTypeDestinationUnreachable, ipv6.ICMPTypeDestinationUnreachable:
		body, ok := msg.Body.(*icmp.DstUnreach)
		if !ok || !req.matchesQuoted(body.Data, matchID) {
			return nil, errForeignMessage
		}
		return &icmpPacket{remoteAddr: src, kind: kindUnreachable, code: msg.Code}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected ICMP message type %v", errForeignMessage, msg.Type)
	}
}
