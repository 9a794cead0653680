// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client whose probes are answered by p.
func newTestClient(r Resolver, p prober) *genericClient {
	return &genericClient{
		resolver: r,
		newProber: func(Options) prober {
			return p
		},
	}
}

func TestClient_Trace(t *testing.T) {
	notFound := &net.DNSError{Err: "no such host", Name: "invalid.invalid", IsNotFound: true}
	resolver := &ResolverMock{
		LookupNetIPFunc: func(_ context.Context, _, host string) ([]netip.Addr, error) {
			switch host {
			case "example.com":
				return []netip.Addr{netip.MustParseAddr("192.0.2.1")}, nil
			default:
				return nil, notFound
			}
		},
	}

	tests := []struct {
		name    string
		target  string
		opts    *Options
		prober  prober
		want    *Result
		wantErr error
	}{
		{
			name:   "loopback answers immediately",
			target: "127.0.0.1",
			opts:   &Options{MaxTTL: 30, Timeout: time.Second},
			prober: &proberMock{
				probeFunc: func(_ context.Context, dst netip.Addr, _ int) (probeResult, error) {
					return probeResult{from: &net.IPAddr{IP: dst.AsSlice()}, outcome: OutcomeSuccess, rtt: 100 * time.Microsecond}, nil
				},
			},
			want: &Result{
				Target:  "127.0.0.1",
				Addr:    "127.0.0.1",
				Options: Options{MaxTTL: 30, Timeout: time.Second},
				Hops:    []Hop{{TTL: 1, Addr: HopAddress{IP: "127.0.0.1"}, Outcome: OutcomeSuccess, Latency: 100 * time.Microsecond}},
				Status:  StatusCompleted,
			},
		},
		{
			name:   "three timeouts",
			target: "example.com",
			opts:   &Options{MaxTTL: 3, Timeout: 10 * time.Millisecond},
			prober: &proberMock{
				probeFunc: func(context.Context, netip.Addr, int) (probeResult, error) {
					return probeResult{}, context.DeadlineExceeded
				},
			},
			want: &Result{
				Target:  "example.com",
				Addr:    "192.0.2.1",
				Options: Options{MaxTTL: 3, Timeout: 10 * time.Millisecond},
				Hops: []Hop{
					{TTL: 1, Outcome: OutcomeTimedOut, Latency: 10 * time.Millisecond},
					{TTL: 2, Outcome: OutcomeTimedOut, Latency: 10 * time.Millisecond},
					{TTL: 3, Outcome: OutcomeTimedOut, Latency: 10 * time.Millisecond},
				},
				Status: StatusExhausted,
			},
		},
		{
			name:    "unresolvable target",
			target:  "invalid.invalid",
			opts:    &Options{MaxTTL: 30, Timeout: 5 * time.Second},
			prober:  &proberMock{},
			wantErr: notFound,
		},
		{
			name:    "invalid options",
			target:  "example.com",
			opts:    &Options{MaxTTL: 0, Timeout: time.Second},
			prober:  &proberMock{},
			wantErr: ErrInvalidOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(resolver, tt.prober)
			got, err := c.Trace(t.Context(), tt.target, tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				if p, ok := tt.prober.(*proberMock); ok {
					assert.Empty(t, p.probeCalls(), "no probe may be sent")
				}
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(Options{}, "OnHop")); diff != "" {
				t.Errorf("Trace() mismatch (-want +got):\n%s", diff)
			}

			s := got.Summary()
			assert.Equal(t, s, Summarize(got))
		})
	}
}

func TestClient_Trace_resolutionError(t *testing.T) {
	c := newTestClient(&ResolverMock{
		LookupNetIPFunc: func(context.Context, string, string) ([]netip.Addr, error) {
			return nil, errors.New("server misbehaving")
		},
	}, &proberMock{})

	res, err := c.Trace(t.Context(), "invalid.invalid", &Options{MaxTTL: 30, Timeout: 5 * time.Second})
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "invalid.invalid", resErr.Target)
	assert.Nil(t, res)
}

func TestClient_Trace_defaults(t *testing.T) {
	var got Options
	c := &genericClient{
		resolver: &ResolverMock{},
		newProber: func(opts Options) prober {
			got = opts
			return pathProber(1)
		},
	}

	res, err := c.Trace(t.Context(), "192.0.2.1", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), got)
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestClient_Trace_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	opts := &Options{
		MaxTTL:  10,
		Timeout: time.Second,
		OnHop: func(hop Hop) {
			if hop.TTL == 2 {
				cancel()
			}
		},
	}
	res, err := newTestClient(&ResolverMock{}, pathProber(0)).Trace(ctx, "192.0.2.1", opts)
	require.NoError(t, err, "cancellation yields a partial result")
	assert.Equal(t, StatusCanceled, res.Status)
	assert.Len(t, res.Hops, 2)
}

func TestClient_Run(t *testing.T) {
	resolver := &ResolverMock{
		LookupNetIPFunc: func(_ context.Context, _, host string) ([]netip.Addr, error) {
			if host == "example.com" {
				return []netip.Addr{netip.MustParseAddr("192.0.2.10")}, nil
			}
			return nil, errors.New("no such host")
		},
	}

	var mu sync.Mutex
	probed := map[netip.Addr]int{}
	p := &proberMock{
		probeFunc: func(_ context.Context, dst netip.Addr, ttl int) (probeResult, error) {
			mu.Lock()
			probed[dst]++
			mu.Unlock()
			if ttl == 2 {
				return probeResult{from: &net.IPAddr{IP: dst.AsSlice()}, outcome: OutcomeSuccess}, nil
			}
			return probeResult{from: routerAddr(ttl), outcome: OutcomeTTLExpired}, nil
		},
	}

	c := newTestClient(resolver, p)
	results, err := c.Run(t.Context(), []string{"192.0.2.1", "example.com", "invalid.invalid"}, &Options{MaxTTL: 5, Timeout: time.Second})

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "invalid.invalid", resErr.Target)

	require.Len(t, results, 2)
	for _, target := range []string{"192.0.2.1", "example.com"} {
		res, ok := results[target]
		require.True(t, ok, "missing result for %s", target)
		assert.Equal(t, StatusCompleted, res.Status)
		assert.Len(t, res.Hops, 2)
	}
	assert.Equal(t, map[netip.Addr]int{
		netip.MustParseAddr("192.0.2.1"):  2,
		netip.MustParseAddr("192.0.2.10"): 2,
	}, probed)
}

func TestClient_Run_duplicateTargets(t *testing.T) {
	var mu sync.Mutex
	probes := 0
	p := &proberMock{
		probeFunc: func(_ context.Context, dst netip.Addr, _ int) (probeResult, error) {
			mu.Lock()
			probes++
			mu.Unlock()
			return probeResult{from: &net.IPAddr{IP: dst.AsSlice()}, outcome: OutcomeSuccess}, nil
		},
	}

	c := newTestClient(&ResolverMock{}, p)
	results, err := c.Run(t.Context(), []string{"192.0.2.1", "192.0.2.1", "192.0.2.1"}, &Options{MaxTTL: 5, Timeout: time.Second})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results["192.0.2.1"].Hops, 1)
	assert.Equal(t, 1, probes, "duplicate targets must be traced once")
}

func TestNewClient(t *testing.T) {
	c, ok := NewClient().(*genericClient)
	require.True(t, ok)
	assert.Same(t, net.DefaultResolver, c.resolver)

	r := &ResolverMock{}
	c, ok = NewClient(WithResolver(r)).(*genericClient)
	require.True(t, ok)
	assert.Same(t, r, c.resolver)

	p, ok := c.newProber(Options{PayloadSize: 48}).(*echoProber)
	require.True(t, ok)
	assert.Len(t, p.payload, 48)
}
