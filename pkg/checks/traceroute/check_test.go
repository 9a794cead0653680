// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/netdiag/internal/traceroute"
	"github.com/telekom/netdiag/pkg/checks"
)

var errNoSuchHost = errors.New("no such host")

func TestCheck(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want Result
	}{
		{
			name: "no targets",
			cfg:  Config{Interval: time.Second, Options: traceroute.Options{MaxTTL: 5, Timeout: time.Second}},
			want: Result{},
		},
		{
			name: "target reached after 3 hops",
			cfg:  Config{Interval: time.Second, Targets: []string{"8.8.8.8"}, Options: traceroute.Options{MaxTTL: 5, Timeout: time.Second}},
			want: Result{
				"8.8.8.8": {
					Addr:   "8.8.8.8",
					Status: traceroute.StatusCompleted,
					Hops: []traceroute.Hop{
						{Addr: traceroute.HopAddress{IP: "10.0.0.1"}, Latency: 1 * time.Millisecond, TTL: 1, Outcome: traceroute.OutcomeTTLExpired},
						{Latency: time.Second, TTL: 2, Outcome: traceroute.OutcomeTimedOut},
						{Addr: traceroute.HopAddress{IP: "8.8.8.8"}, Latency: 3 * time.Millisecond, TTL: 3, Outcome: traceroute.OutcomeSuccess},
					},
					Summary: traceroute.Summary{SuccessCount: 2, FailedCount: 1, TotalLatency: time.Second + 4*time.Millisecond},
				},
			},
		},
		{
			name: "unresolvable target is reported with its error",
			cfg:  Config{Interval: time.Second, Targets: []string{"8.8.8.8", "invalid.example"}, Options: traceroute.Options{MaxTTL: 5, Timeout: time.Second}},
			want: Result{
				"8.8.8.8": {
					Addr:   "8.8.8.8",
					Status: traceroute.StatusCompleted,
					Hops: []traceroute.Hop{
						{Addr: traceroute.HopAddress{IP: "10.0.0.1"}, Latency: 1 * time.Millisecond, TTL: 1, Outcome: traceroute.OutcomeTTLExpired},
						{Latency: time.Second, TTL: 2, Outcome: traceroute.OutcomeTimedOut},
						{Addr: traceroute.HopAddress{IP: "8.8.8.8"}, Latency: 3 * time.Millisecond, TTL: 3, Outcome: traceroute.OutcomeSuccess},
					},
					Summary: traceroute.Summary{SuccessCount: 2, FailedCount: 1, TotalLatency: time.Second + 4*time.Millisecond},
				},
				"invalid.example": {
					Hops:  []traceroute.Hop{},
					Error: `failed to resolve target "invalid.example": no such host`,
				},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tr := newTraceroute(t, c.cfg)
			res := tr.check(t.Context())

			if diff := cmp.Diff(c.want, res); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheck_recordsTraces(t *testing.T) {
	tr := newTraceroute(t, Config{
		Interval: time.Second,
		Targets:  []string{"8.8.8.8", "1.1.1.1", "invalid.example"},
		Options:  traceroute.Options{MaxTTL: 5, Timeout: time.Second},
	})

	rec := &RecorderMock{
		SaveFunc: func(_ context.Context, res *traceroute.Result) error {
			if res.Target == "1.1.1.1" {
				return errors.New("disk full")
			}
			return nil
		},
	}
	tr.SetRecorder(rec)

	res := tr.check(t.Context())
	require.Len(t, res, 3)

	saved := map[string]bool{}
	for _, call := range rec.SaveCalls() {
		saved[call.Res.Target] = true
	}
	assert.Equal(t, map[string]bool{"8.8.8.8": true, "1.1.1.1": true}, saved)
	assert.Empty(t, res["1.1.1.1"].Error, "a failed save must not fail the trace")
}

func TestRun(t *testing.T) {
	tr := newTraceroute(t, Config{
		Interval: 10 * time.Millisecond,
		Targets:  []string{"8.8.8.8"},
		Options:  traceroute.Options{MaxTTL: 5, Timeout: time.Second},
	})

	cResult := make(chan checks.ResultDTO, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.Run(t.Context(), cResult)
	}()

	select {
	case dto := <-cResult:
		assert.Equal(t, CheckName, dto.Name)
		res, ok := dto.Result.Data.(Result)
		require.True(t, ok, "result data should be a traceroute result")
		assert.True(t, res["8.8.8.8"].reached())
	case <-time.After(5 * time.Second):
		t.Fatal("no result within 5s")
	}

	tr.Shutdown()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case err := <-errCh:
			assert.NoError(t, err)
			return
		case <-cResult:
		case <-timeout:
			t.Fatal("check did not stop after shutdown")
		}
	}
}

func TestUpdateConfig(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		cfg     checks.Runtime
		wantErr bool
	}{
		{
			name:    "targets replaced",
			current: []string{"8.8.8.8", "1.1.1.1"},
			cfg:     &Config{Targets: []string{"8.8.8.8"}, Interval: time.Minute},
		},
		{
			name:    "removed target never ran",
			current: []string{"never.example"},
			cfg:     &Config{Targets: []string{}, Interval: time.Minute},
		},
		{
			name:    "config of another check",
			cfg:     &otherConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTraceroute(t, Config{Targets: tt.current, Interval: time.Second})
			for _, target := range tt.current {
				if target != "never.example" {
					tr.metrics.Set(target, TargetResult{})
				}
			}

			err := tr.UpdateConfig(tt.cfg)
			if tt.wantErr {
				var mismatch checks.ErrConfigMismatch
				assert.ErrorAs(t, err, &mismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg, tr.GetConfig())
			assert.ErrorAs(t, tr.RemoveLabelledMetrics("1.1.1.1"), new(checks.ErrMetricNotFound))
		})
	}
}

func TestSchema(t *testing.T) {
	tr := newTraceroute(t, Config{})
	schema, err := tr.Schema()
	require.NoError(t, err)

	data := schema.Value.Properties["data"]
	require.NotNil(t, data)
	require.NotNil(t, data.Value.AdditionalProperties.Schema, "result should be a map of targets")
	target := data.Value.AdditionalProperties.Schema.Value
	for _, prop := range []string{"addr", "status", "hops", "summary", "error"} {
		assert.Contains(t, target.Properties, prop)
	}
}

type otherConfig struct{}

func (*otherConfig) For() string     { return "dns" }
func (*otherConfig) Validate() error { return nil }

// newTraceroute creates a check whose client answers every target
// with a router at 10.0.0.1, a silent hop and the target itself.
func newTraceroute(t testing.TB, cfg Config) *Traceroute {
	t.Helper()
	c, ok := NewCheck().(*Traceroute)
	require.True(t, ok, "NewCheck should return a Traceroute check")
	c.config = cfg
	c.client = &traceroute.ClientMock{
		RunFunc: func(_ context.Context, targets []string, opts *traceroute.Options) (traceroute.Results, error) {
			res := make(traceroute.Results, len(targets))
			var errs []error
			for _, target := range targets {
				if net.ParseIP(target) == nil {
					errs = append(errs, &traceroute.ResolutionError{Target: target, Err: errNoSuchHost})
					continue
				}
				res[target] = &traceroute.Result{
					Target:  target,
					Addr:    target,
					Options: *opts,
					Hops: []traceroute.Hop{
						{Addr: traceroute.HopAddress{IP: "10.0.0.1"}, Latency: 1 * time.Millisecond, TTL: 1, Outcome: traceroute.OutcomeTTLExpired},
						{Latency: opts.Timeout, TTL: 2, Outcome: traceroute.OutcomeTimedOut},
						{Addr: traceroute.HopAddress{IP: target}, Latency: 3 * time.Millisecond, TTL: 3, Outcome: traceroute.OutcomeSuccess},
					},
					Status: traceroute.StatusCompleted,
				}
			}
			return res, errors.Join(errs...)
		},
	}
	return c
}
