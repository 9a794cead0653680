// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/netdiag/internal/traceroute"
	"github.com/telekom/netdiag/pkg/checks"
	"github.com/telekom/netdiag/pkg/checks/runtime"
	checktraceroute "github.com/telekom/netdiag/pkg/checks/traceroute"
	"github.com/telekom/netdiag/pkg/db"
	"github.com/telekom/netdiag/pkg/metrics"
)

func tracerouteConfig(targets ...string) *checktraceroute.Config {
	return &checktraceroute.Config{
		Targets:  targets,
		Interval: time.Hour,
		Options:  traceroute.DefaultOptions(),
	}
}

func newCheckMock(name string, run func(ctx context.Context, cResult chan checks.ResultDTO) error) *checks.CheckMock {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_" + name})
	return &checks.CheckMock{
		NameFunc:                func() string { return name },
		GetMetricCollectorsFunc: func() []prometheus.Collector { return []prometheus.Collector{gauge} },
		RunFunc:                 run,
		ShutdownFunc:            func() {},
	}
}

func TestChecksController_Reconcile(t *testing.T) {
	cc := NewChecksController(db.NewInMemory(), metrics.New(metrics.Config{}, "test"))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	cc.Reconcile(ctx, runtime.Config{Traceroute: tracerouteConfig("example.com")})
	check, ok := cc.checks.Get(checktraceroute.CheckName)
	require.True(t, ok, "traceroute check should be registered")
	assert.Equal(t, []string{"example.com"}, check.GetConfig().(*checktraceroute.Config).Targets)

	cc.Reconcile(ctx, runtime.Config{Traceroute: tracerouteConfig("example.com", "1.1.1.1")})
	updated, ok := cc.checks.Get(checktraceroute.CheckName)
	require.True(t, ok)
	assert.Same(t, check, updated, "existing checks are updated in place")
	assert.Equal(t, []string{"example.com", "1.1.1.1"}, updated.GetConfig().(*checktraceroute.Config).Targets)

	cc.Reconcile(ctx, runtime.Config{Traceroute: &checktraceroute.Config{Interval: -1}})
	_, ok = cc.checks.Get(checktraceroute.CheckName)
	assert.True(t, ok, "an invalid config must not remove running checks")

	cc.Reconcile(ctx, runtime.Config{})
	_, ok = cc.checks.Get(checktraceroute.CheckName)
	assert.False(t, ok, "traceroute check should be unregistered")
}

func TestChecksController_Run(t *testing.T) {
	dbase := db.NewInMemory()
	cc := NewChecksController(dbase, metrics.New(metrics.Config{}, "test"))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- cc.Run(ctx)
	}()

	healthy := newCheckMock("healthy", func(ctx context.Context, cResult chan checks.ResultDTO) error {
		cResult <- checks.ResultDTO{Name: "healthy", Result: &checks.Result{Data: "ok"}}
		<-ctx.Done()
		return ctx.Err()
	})
	failing := newCheckMock("failing", func(context.Context, chan checks.ResultDTO) error {
		return errors.New("broken")
	})
	require.NoError(t, cc.RegisterCheck(ctx, healthy))
	require.NoError(t, cc.RegisterCheck(ctx, failing))

	assert.Eventually(t, func() bool {
		_, ok := dbase.Get("healthy")
		return ok
	}, time.Second, 10*time.Millisecond, "result should be saved")

	assert.Eventually(t, func() bool {
		_, ok := cc.checks.Get("failing")
		return !ok
	}, time.Second, 10*time.Millisecond, "failing check should be unregistered")
	assert.Len(t, failing.ShutdownCalls(), 1)

	cc.Shutdown(ctx)
	assert.Len(t, healthy.ShutdownCalls(), 1)
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("controller did not stop")
	}
}

func TestChecksController_RegisterCheck_duplicateMetrics(t *testing.T) {
	cc := NewChecksController(db.NewInMemory(), metrics.New(metrics.Config{}, "test"))
	run := func(ctx context.Context, _ chan checks.ResultDTO) error {
		<-ctx.Done()
		return nil
	}

	require.NoError(t, cc.RegisterCheck(t.Context(), newCheckMock("dup", run)))
	assert.Error(t, cc.RegisterCheck(t.Context(), newCheckMock("dup", run)), "collectors with the same name cannot be registered twice")
}
