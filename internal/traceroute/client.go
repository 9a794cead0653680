// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync"

	"github.com/telekom/netdiag/internal/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	_ Client = (*genericClient)(nil)
)

// Client is able to run a traceroute to one or more targets.
//
//go:generate go tool moq -out client_moq.go . Client
type Client interface {
	// Trace runs a traceroute to the target. If opts is nil, [DefaultOptions] are used.
	// It only fails if the options are invalid or the target cannot be resolved;
	// a canceled context yields the partial result with [StatusCanceled].
	Trace(ctx context.Context, target string, opts *Options) (*Result, error)
	// Run traces all targets concurrently, each one sequentially hop by hop.
	// Targets that failed are missing from the results and their errors are joined.
	// Duplicate targets are traced once.
	Run(ctx context.Context, targets []string, opts *Options) (Results, error)
}

// ClientOption configures a [Client] created by [NewClient].
type ClientOption func(*genericClient)

// WithResolver sets the resolver used for target and hop name lookups.
func WithResolver(r Resolver) ClientOption {
	return func(c *genericClient) {
		c.resolver = r
	}
}

type genericClient struct {
	resolver Resolver
	// newProber creates the prober for a single trace.
	newProber func(opts Options) prober
}

// NewClient creates a [Client] probing with ICMP echo requests.
func NewClient(opts ...ClientOption) Client {
	c := &genericClient{
		resolver: net.DefaultResolver,
		newProber: func(opts Options) prober {
			return newEchoProber(opts)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *genericClient) Trace(ctx context.Context, target string, opts *Options) (*Result, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("traceroute.genericClient")
	ctx, sp := tracer.Start(ctx, "Trace", trace.WithAttributes(
		attribute.String("traceroute.target.address", target),
		attribute.Int("traceroute.options.max_hops", o.MaxTTL),
		attribute.Stringer("traceroute.options.timeout", o.Timeout),
	))
	defer sp.End()

	dst, err := resolveTarget(ctx, c.resolver, target)
	if err != nil {
		log.DebugContext(ctx, "Failed to resolve target", "target", target, "error", err)
		sp.RecordError(err)
		sp.SetStatus(codes.Error, "Failed to resolve target")
		return nil, err
	}
	sp.SetAttributes(attribute.Stringer("traceroute.target.ip", dst))
	log.DebugContext(ctx, "Tracing target", "target", target, "addr", dst, "maxHops", o.MaxTTL)

	h := &hopper{
		prober:     c.newProber(o),
		resolver:   c.resolver,
		otelTracer: tracer,
		target:     target,
		dst:        dst,
		opts:       o,
	}
	hops, status := h.run(ctx)
	logHops(ctx, hops)

	sp.SetAttributes(
		attribute.Int("traceroute.hops", len(hops)),
		attribute.String("traceroute.status", string(status)),
	)
	return &Result{
		Target:  target,
		Addr:    dst.String(),
		Options: o,
		Hops:    hops,
		Status:  status,
	}, nil
}

func (c *genericClient) Run(ctx context.Context, targets []string, opts *Options) (Results, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("traceroute.genericClient")
	ctx, sp := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.StringSlice("traceroute.targets", targets),
	))
	defer sp.End()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	// results are keyed by target, so each target is traced once
	targets = slices.Compact(slices.Sorted(slices.Values(targets)))
	results := make(Results, len(targets))
	for _, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Trace(ctx, target, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results[target] = res
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, "Some targets could not be traced")
		return results, err
	}
	return results, nil
}
