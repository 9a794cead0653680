// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package traceroute

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"slices"
	"syscall"
	"time"

	"github.com/telekom/netdiag/internal/logger"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

const (
	// extendedErrSize is the size of struct sock_extended_err.
	// The address of the offending node directly follows it.
	extendedErrSize = 16
	// oobBufSize is big enough for one sock_extended_err with an IPv6 offender.
	oobBufSize = 512
)

// newEchoConn opens the socket for a single probe. A raw socket is preferred;
// if the process is not allowed to open one, an unprivileged ICMP datagram
// socket is used instead.
func newEchoConn(dst netip.Addr, ttl int) (echoConn, error) {
	conn, err := newRawConn(dst, ttl)
	if err == nil {
		return conn, nil
	}
	if !errors.Is(err, unix.EPERM) && !errors.Is(err, unix.EACCES) {
		return nil, err
	}
	return newErrQueueConn(dst, ttl)
}

var _ echoConn = (*errQueueConn)(nil)

// errQueueConn sends echo requests over an unprivileged ICMP datagram socket.
//
// The kernel only delivers echo replies to such a socket. Time exceeded and
// destination unreachable messages are queued on the socket's error queue
// (IP_RECVERR) and surface as a failing read.
type errQueueConn struct {
	conn net.PacketConn
	raw  syscall.RawConn
	dst  *net.UDPAddr
	v6   bool
	sent echoRequest
}

// newErrQueueConn opens an unprivileged ICMP datagram socket.
// This requires the process' group to be in net.ipv4.ping_group_range.
func newErrQueueConn(dst netip.Addr, ttl int) (echoConn, error) {
	family, proto := unix.AF_INET, unix.IPPROTO_ICMP
	if dst.Is6() {
		family, proto = unix.AF_INET6, unix.IPPROTO_ICMPV6
	}

	fd, err := unix.Socket(family, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return nil, fmt.Errorf("%w: %w", errICMPNotAvailable, err)
		}
		return nil, fmt.Errorf("failed to create ICMP datagram socket: %w", err)
	}

	if err = setSockOpts(fd, dst.Is6(), ttl); err != nil {
		return nil, errors.Join(err, unix.Close(fd))
	}

	f := os.NewFile(uintptr(fd), "datagram-oriented icmp")
	conn, err := net.FilePacketConn(f)
	// FilePacketConn duplicates the descriptor.
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to create packet connection: %w", err)
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, errors.Join(errors.New("ICMP datagram socket does not expose its descriptor"), conn.Close())
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to access raw connection: %w", err), conn.Close())
	}

	return &errQueueConn{
		conn: conn,
		raw:  raw,
		dst:  &net.UDPAddr{IP: dst.AsSlice(), Zone: dst.Zone()},
		v6:   dst.Is6(),
	}, nil
}

// setSockOpts sets the TTL and enables the error queue on the socket.
func setSockOpts(fd int, v6 bool, ttl int) error {
	if v6 {
		return errors.Join(
			wrapSockOpt(unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS, ttl), "IPV6_UNICAST_HOPS"),
			wrapSockOpt(unix.SetsockoptInt(fd, unix.SOL_IPV6, unix.IPV6_RECVERR, 1), "IPV6_RECVERR"),
		)
	}
	return errors.Join(
		wrapSockOpt(unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TTL, ttl), "IP_TTL"),
		wrapSockOpt(unix.SetsockoptInt(fd, unix.SOL_IP, unix.IP_RECVERR, 1), "IP_RECVERR"),
	)
}

func wrapSockOpt(err error, opt string) error {
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", opt, err)
	}
	return nil
}

// Close closes the ICMP datagram socket.
func (c *errQueueConn) Close() error {
	return c.conn.Close()
}

func (c *errQueueConn) WriteEcho(_ context.Context, req echoRequest) error {
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

// Read waits for the echo reply. Any other read error is resolved by
// draining the socket's error queue, where the kernel stores the ICMP error
// messages for the probe.
func (c *errQueueConn) Read(ctx context.Context) (icmpPacket, error) {
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

	proto := protocolICMP
	if c.v6 {
		proto = protocolIPv6ICMP
	}

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
			pkt, qErr := c.readErrQueue(ctx)
			if qErr != nil {
				log.DebugContext(ctx, "Failed to read socket error queue", "error", qErr)
				return icmpPacket{}, fmt.Errorf("failed to read from ICMP socket: %w", err)
			}
			return *pkt, nil
		}

		msg, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil {
			log.DebugContext(ctx, "Failed to parse ICMP message, skipping", "error", err)
			continue
		}
		pkt, err := newICMPPacket(src, msg, c.sent, false)
		if err != nil {
			log.DebugContext(ctx, "Skipping ICMP message", "type", msg.Type, "from", src, "error", err)
			continue
		}
		return *pkt, nil
	}
}

// readErrQueue reads one message from the socket's error queue.
func (c *errQueueConn) readErrQueue(ctx context.Context) (*icmpPacket, error) {
	var (
		oob  []byte
		rErr error
	)
	err := c.raw.Read(func(fd uintptr) bool {
		oob, rErr = recvErrQueue(fd)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access socket: %w", err)
	}
	if rErr != nil {
		return nil, rErr
	}
	return parseExtendedErr(ctx, oob)
}

// unixRecvMsg is the receive syscall; tests replace it.
var unixRecvMsg = unix.Recvmsg

// recvErrQueue receives the control messages of the next error queue entry.
func recvErrQueue(fd uintptr) ([]byte, error) {
	data := make([]byte, mtuSize)
	oob := make([]byte, oobBufSize)
	_, oobn, _, _, err := unixRecvMsg(int(fd), data, oob, unix.MSG_ERRQUEUE|unix.MSG_DONTWAIT)
	if err != nil {
		return nil, fmt.Errorf("failed to receive from error queue: %w", err)
	}
	return oob[:oobn], nil
}

// newSockExtendedErr decodes struct sock_extended_err from linux/errqueue.h.
func newSockExtendedErr(b []byte) (unix.SockExtendedErr, error) {
	if len(b) < extendedErrSize {
		return unix.SockExtendedErr{}, fmt.Errorf("extended error too short: %d bytes", len(b))
	}
	return unix.SockExtendedErr{
		Errno:  binary.NativeEndian.Uint32(b[0:4]),
		Origin: b[4],
		Type:   b[5],
		Code:   b[6],
		Pad:    b[7],
		Info:   binary.NativeEndian.Uint32(b[8:12]),
		Data:   binary.NativeEndian.Uint32(b[12:16]),
	}, nil
}

// extendedErrKind classifies the ICMP message the kernel queued the error for.
func extendedErrKind(ee unix.SockExtendedErr) (icmpKind, bool) {
	switch ee.Origin {
	case unix.SO_EE_ORIGIN_ICMP:
		switch ee.Type {
		case uint8(ipv4.ICMPTypeTimeExceeded):
			return kindTimeExceeded, true
		case uint8(ipv4.ICMPTypeDestinationUnreachable):
			return kindUnreachable, true
		}
	case unix.SO_EE_ORIGIN_ICMP6:
		switch ee.Type {
		case uint8(ipv6.ICMPTypeTimeExceeded):
			return kindTimeExceeded, true
		case uint8(ipv6.ICMPTypeDestinationUnreachable):
			return kindUnreachable, true
		}
	}
	return 0, false
}

// parseExtendedErr extracts the ICMP error from the control messages of an
// error queue entry.
func parseExtendedErr(ctx context.Context, oob []byte) (*icmpPacket, error) {
	log := logger.FromContext(ctx)
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("failed to parse control messages: %w", err)
	}

	for _, m := range msgs {
		v4 := m.Header.Level == unix.SOL_IP && m.Header.Type == unix.IP_RECVERR
		v6 := m.Header.Level == unix.SOL_IPV6 && m.Header.Type == unix.IPV6_RECVERR
		if !v4 && !v6 {
			continue
		}

		ee, err := newSockExtendedErr(m.Data)
		if err != nil {
			return nil, err
		}
		kind, ok := extendedErrKind(ee)
		if !ok {
			return nil, fmt.Errorf("unexpected extended error: origin %d type %d errno %d", ee.Origin, ee.Type, ee.Errno)
		}

		from := offenderAddr(m.Data[extendedErrSize:])
		log.DebugContext(ctx, "Received ICMP error from error queue", "type", ee.Type, "code", ee.Code, "from", from)
		return &icmpPacket{remoteAddr: from, kind: kind, code: int(ee.Code)}, nil
	}
	return nil, errors.New("no extended error in control messages")
}

// offenderAddr decodes the sockaddr of the node that sent the ICMP error.
func offenderAddr(sa []byte) net.Addr {
	if len(sa) < 2 {
		return nil
	}
	switch binary.NativeEndian.Uint16(sa[0:2]) {
	case unix.AF_INET:
		if len(sa) >= 8 {
			return &net.IPAddr{IP: net.IP(slices.Clone(sa[4:8]))}
		}
	case unix.AF_INET6:
		if len(sa) >= 24 {
			return &net.IPAddr{IP: net.IP(slices.Clone(sa[8:24]))}
		}
	}
	return nil
}
