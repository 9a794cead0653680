// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/telekom/netdiag/internal/logger"
	"golang.org/x/net/icmp"
)

var _ echoConn = (*rawConn)(nil)

// rawConn sends echo requests over a raw ICMP socket.
// It requires NET_RAW capabilities to be created successfully.
type rawConn struct {
	// conn is the raw ICMP socket.
	conn *icmp.PacketConn
	// dst is the address probes are sent to.
	dst *net.IPAddr
	// proto is the protocol number used to parse received messages.
	proto int
	v6    bool
	// sent is the last echo request written to the socket.
	sent echoRequest
}

// newRawConn opens a raw ICMP socket and sets the TTL (hop limit for IPv6)
// of outgoing packets.
func newRawConn(dst netip.Addr, ttl int) (echoConn, error) {
	network, address, proto := "ip4:icmp", "0.0.0.0", protocolICMP
	if dst.Is6() {
		network, address, proto = "ip6:ipv6-icmp", "::", protocolIPv6ICMP
	}

	conn, err := icmp.ListenPacket(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to create ICMP listener: %w", err)
	}

	if dst.Is6() {
		err = conn.IPv6PacketConn().SetHopLimit(ttl)
	} else {
		err = conn.IPv4PacketConn().SetTTL(ttl)
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to set ttl %d: %w", ttl, err), conn.Close())
	}

	return &rawConn{
		conn:  conn,
		dst:   &net.IPAddr{IP: dst.AsSlice(), Zone: dst.Zone()},
		proto: proto,
		v6:    dst.Is6(),
	}, nil
}

func (c *rawConn) WriteEcho(_ context.Context, req echoRequest) error {
	b, err := req.marshal(c.v6)
	if err != nil {
		return err
	}
	if _, err := c.conn.WriteTo(b, c.dst); err != nil {
		return fmt.Errorf("failed to write echo request: %w", err)
	}
	c.sent = req
	return nil
}

// Read receives ICMP messages until one of them answers the last echo request.
// All other ICMP traffic seen by the raw socket is skipped.
func (c *rawConn) Read(ctx context.Context) (icmpPacket, error) {
	log := logger.FromContext(ctx)
	deadline, ok := ctx.Deadline()
	if !ok {
		return icmpPacket{}, errNoDeadline
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return icmpPacket{}, fmt.Errorf("failed to set read deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, mtuSize)
	for {
		n, src, err := c.conn.ReadFrom(buf)
		if ctx.Err() != nil {
			return icmpPacket{}, ctx.Err()
		}
		if err != nil {
			if isTimeout(err) {
				return icmpPacket{}, context.DeadlineExceeded
			}
			return icmpPacket{}, fmt.Errorf("failed to read from ICMP socket: %w", err)
		}

		msg, err := icmp.ParseMessage(c.proto, buf[:n])
		if err != nil {
			log.DebugContext(ctx, "Failed to parse ICMP message, skipping", "error", err)
			continue
		}

		pkt, err := newICMPPacket(src, msg, c.sent, true)
		if err != nil {
			log.DebugContext(ctx, "Skipping ICMP message", "type", msg.Type, "from", src, "error", err)
			continue
		}
		log.DebugContext(ctx, "Received ICMP packet", "type", msg.Type, "code", msg.Code, "from", src)
		return *pkt, nil
	}
}

// Close closes the raw socket.
func (c *rawConn) Close() error {
	return c.conn.Close()
}
