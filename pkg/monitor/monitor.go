// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/pkg/api"
	"github.com/telekom/netdiag/pkg/checks/runtime"
	"github.com/telekom/netdiag/pkg/config"
	"github.com/telekom/netdiag/pkg/db"
	"github.com/telekom/netdiag/pkg/history"
	"github.com/telekom/netdiag/pkg/metrics"
)

const shutdownTimeout = time.Second * 90

// Monitor periodically traces the configured targets and serves the results
type Monitor struct {
	// config is the startup configuration of the monitor
	config *config.Config
	// version is the version of the monitor
	version string
	// db is the database used to store the check results
	db db.DB
	// api is the monitor's API
	api api.API
	// loader is used to load the runtime configuration
	loader config.Loader
	// metrics is used to collect metrics
	metrics metrics.Provider
	// history stores every trace if enabled
	history *history.Store
	// controller is used to manage the checks
	controller *ChecksController
	// cRuntime is used to signal that the runtime configuration has changed
	cRuntime chan runtime.Config
	// cErr is used to handle non-recoverable errors of the monitor components
	cErr chan error
	// cDone is used to signal that the monitor was shut down because of an error
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
}

// New creates a new monitor from a given config
func New(cfg *config.Config, version string) *Monitor {
	m := metrics.New(cfg.Telemetry, version)
	dbase := db.NewInMemory()

	monitor := &Monitor{
		config:     cfg,
		version:    version,
		db:         dbase,
		api:        api.New(cfg.Api),
		metrics:    m,
		controller: NewChecksController(dbase, m),
		cRuntime:   make(chan runtime.Config, 1),
		cErr:       make(chan error, 1),
		cDone:      make(chan struct{}, 1),
		shutOnce:   sync.Once{},
	}
	monitor.loader = config.NewLoader(cfg, monitor.cRuntime)

	return monitor
}

// Run starts the monitor
func (m *Monitor) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	if err := metrics.RegisterInstanceInfo(m.metrics.GetRegistry(), m.config.Name, m.version); err != nil {
		log.WarnContext(ctx, "Failed to register instance info metric", "error", err)
	}

	err := m.metrics.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if m.config.HasHistory() {
		m.history, err = history.New(ctx, m.config.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		m.controller.recorder = m.history
	}

	if err := m.api.RegisterRoutes(ctx, m.routes()...); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	go func() {
		m.cErr <- m.loader.Run(ctx)
	}()

	go func() {
		m.cErr <- m.api.Run(ctx)
	}()

	go func() {
		m.cErr <- m.controller.Run(ctx)
	}()

	for {
		select {
		case cfg := <-m.cRuntime:
			m.controller.Reconcile(ctx, cfg)
		case <-ctx.Done():
			m.shutdown(ctx)
		case err := <-m.cErr:
			if err != nil {
				log.ErrorContext(ctx, "Non-recoverable error in monitor component", "error", err)
				m.shutdown(ctx)
			}
		case <-m.cDone:
			log.InfoContext(ctx, "Monitor was shut down")
			return ErrFinalShutdown
		}
	}
}

// shutdown shuts down the monitor and all managed components gracefully.
// It returns an error if one is present in the context or if any of the
// components fail to shut down.
func (m *Monitor) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	m.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down monitor")
		var sErrs ErrShutdown
		sErrs.errAPI = m.api.Shutdown(ctx)
		sErrs.errMetrics = m.metrics.Shutdown(ctx)
		m.loader.Shutdown(ctx)
		m.controller.Shutdown(ctx)
		if m.history != nil {
			sErrs.errHistory = m.history.Close()
		}

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC, "errors", sErrs)
		}

		// Signal that shutdown is complete
		m.cDone <- struct{}{}
	})
}
