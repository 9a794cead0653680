// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net"
	"net/netip"
	"time"
)

// prober sends a single probe with the given TTL and waits for its answer.
//
// Implementations return an error wrapping [context.DeadlineExceeded] if
// nothing answered before the context deadline.
//
//go:generate go tool moq -out prober_moq.go . prober
type prober interface {
	probe(ctx context.Context, dst netip.Addr, ttl int) (probeResult, error)
}

// probeResult is the answer to a probe.
type probeResult struct {
	// from is the node that answered.
	from    net.Addr
	outcome Outcome
	rtt     time.Duration
}

var _ prober = (*echoProber)(nil)

// echoProber probes with ICMP echo requests. The TTL doubles as the
// sequence number of the request.
type echoProber struct {
	id      int
	payload []byte
	// newConn opens the socket for a single probe.
	newConn func(dst netip.Addr, ttl int) (echoConn, error)
}

func newEchoProber(opts Options) *echoProber {
	return &echoProber{
		id:      randomID(),
		payload: make([]byte, opts.payloadSize()),
		newConn: newEchoConn,
	}
}

// probe opens a socket, sends one echo request and waits for the answer.
// The socket is closed before probe returns.
func (p *echoProber) probe(ctx context.Context, dst netip.Addr, ttl int) (probeResult, error) {
	conn, err := p.newConn(dst, ttl)
	if err != nil {
		return probeResult{}, wrapError(ctx, err, "failed to open ICMP socket for ttl %d", ttl)
	}
	defer func() {
		_ = conn.Close()
	}()

	start := time.Now()
	req := echoRequest{id: p.id, seq: ttl, payload: p.payload}
	if err = conn.WriteEcho(ctx, req); err != nil {
		return probeResult{}, wrapError(ctx, err, "failed to send echo request with ttl %d", ttl)
	}

	pkt, err := conn.Read(ctx)
	if err != nil {
		return probeResult{}, err
	}
	return probeResult{
		from:    pkt.remoteAddr,
		outcome: pkt.outcome(),
		rtt:     time.Since(start),
	}, nil
}
