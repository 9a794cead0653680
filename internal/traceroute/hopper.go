// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net/netip"
	"time"

	"github.com/telekom/netdiag/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// hopper probes the hops towards a single target one TTL after another.
type hopper struct {
	prober     prober
	resolver   Resolver
	otelTracer trace.Tracer
	// target is the target as given by the caller.
	target string
	// dst is the resolved address of the target.
	dst  netip.Addr
	opts Options
}

// run probes TTL 1 up to the maximum TTL and returns the hops in TTL order
// together with the reason the trace stopped.
func (h *hopper) run(ctx context.Context) ([]Hop, Status) {
	log := logger.FromContext(ctx)
	hops := make([]Hop, 0, h.opts.MaxTTL)
	failures := 0

	for ttl := 1; ttl <= h.opts.MaxTTL; ttl++ {
		if ctx.Err() != nil {
			log.DebugContext(ctx, "Trace canceled", "target", h.target, "hops", len(hops))
			return hops, StatusCanceled
		}

		hop, ok := h.step(ctx, ttl)
		if !ok {
			log.DebugContext(ctx, "Trace canceled during probe", "target", h.target, "ttl", ttl)
			return hops, StatusCanceled
		}
		hops = append(hops, hop)
		if h.opts.OnHop != nil {
			h.opts.OnHop(hop)
		}

		if hop.Outcome == OutcomeSuccess {
			return hops, StatusCompleted
		}

		if hop.Outcome.Responded() {
			failures = 0
		} else {
			failures++
		}
		if h.opts.MaxConsecutiveFailures > 0 && failures >= h.opts.MaxConsecutiveFailures {
			log.DebugContext(ctx, "Too many consecutive failed probes, giving up",
				"target", h.target, "ttl", ttl, "failures", failures)
			return hops, StatusAborted
		}
	}

	return hops, StatusExhausted
}

// step probes a single TTL. It returns false if the trace was canceled
// while the probe was running; the probe is discarded in that case.
func (h *hopper) step(ctx context.Context, ttl int) (Hop, bool) {
	ctx, span := h.otelTracer.Start(ctx, h.target, trace.WithAttributes(
		attribute.String("traceroute.target.address", h.target),
		attribute.Stringer("traceroute.target.ip", h.dst),
		attribute.Int("traceroute.target.ttl", ttl),
	))
	defer span.End()

	probeCtx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := h.prober.probe(probeCtx, h.dst, ttl)
	if ctx.Err() != nil {
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, "Trace canceled")
		return Hop{}, false
	}

	hop := Hop{TTL: ttl}
	switch {
	case isTimeout(err):
		hop.Outcome = OutcomeTimedOut
		hop.Latency = h.opts.Timeout
		span.AddEvent("Probe timed out", trace.WithAttributes(
			attribute.Stringer("traceroute.probe.timeout", h.opts.Timeout),
		))
	case err != nil:
		pErr := &ProbeError{TTL: ttl, Err: err}
		hop.Outcome = OutcomeOther
		hop.Latency = time.Since(start)
		hop.Error = pErr.Error()
		span.RecordError(pErr)
		span.SetStatus(codes.Error, "Probe failed")
	default:
		hop.Outcome = res.outcome
		hop.Latency = res.rtt
		hop.Addr = newHopAddress(res.from)
		if h.opts.ResolveNames && res.from != nil {
			hop.Name = resolveName(ctx, h.resolver, res.from, h.opts.Timeout)
		}
		span.AddEvent("Probe answered", trace.WithAttributes(
			attribute.String("traceroute.hop.addr", hop.Addr.String()),
			attribute.String("traceroute.hop.outcome", hop.Outcome.String()),
			attribute.Stringer("traceroute.hop.latency", hop.Latency),
		))
	}

	span.SetAttributes(attribute.String("traceroute.hop.outcome", hop.Outcome.String()))
	return hop, true
}
