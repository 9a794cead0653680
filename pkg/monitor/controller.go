// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"errors"

	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/pkg/checks"
	"github.com/telekom/netdiag/pkg/checks/runtime"
	"github.com/telekom/netdiag/pkg/checks/traceroute"
	"github.com/telekom/netdiag/pkg/db"
	"github.com/telekom/netdiag/pkg/factory"
	"github.com/telekom/netdiag/pkg/metrics"
)

// ChecksController is responsible for managing checks.
type ChecksController struct {
	db       db.DB
	metrics  metrics.Provider
	checks   runtime.Checks
	recorder traceroute.Recorder
	cResult  chan checks.ResultDTO
	cErr     chan error
	done     chan struct{}
}

// NewChecksController creates a new ChecksController.
func NewChecksController(dbase db.DB, m metrics.Provider) *ChecksController {
	return &ChecksController{
		db:      dbase,
		metrics: m,
		checks:  runtime.Checks{},
		cResult: make(chan checks.ResultDTO, 8),
		cErr:    make(chan error, 1),
		done:    make(chan struct{}, 1),
	}
}

// Run runs the ChecksController with handling results and errors.
// A check that fails is unregistered, the controller keeps running.
func (cc *ChecksController) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for {
		select {
		case result := <-cc.cResult:
			cc.db.Save(result)
		case err := <-cc.cErr:
			var runErr *ErrRunningCheck
			if errors.As(err, &runErr) {
				log.ErrorContext(ctx, "Error while running check", "check", runErr.Check.Name(), "error", runErr.Err)
				cc.UnregisterCheck(ctx, runErr.Check)
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-cc.done:
			log.InfoContext(ctx, "Stopping checks controller")
			return nil
		}
	}
}

// Shutdown shuts down the ChecksController.
func (cc *ChecksController) Shutdown(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "Shutting down checks controller")

	for c := range cc.checks.Iter() {
		cc.UnregisterCheck(ctx, c)
	}
	select {
	case cc.done <- struct{}{}:
	default:
	}
}

// Reconcile reconciles the checks.
// It registers new checks, updates existing checks and unregisters checks not in the new config.
func (cc *ChecksController) Reconcile(ctx context.Context, cfg runtime.Config) {
	log := logger.FromContext(ctx)

	var opts []factory.Option
	if cc.recorder != nil {
		opts = append(opts, factory.WithRecorder(cc.recorder))
	}
	newChecks, err := factory.NewChecksFromConfig(cfg, opts...)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create checks from config", "error", err)
		return
	}

	// update existing checks and create a list of checks to unregister
	var unregList []checks.Check
	for c := range cc.checks.Iter() {
		conf := cfg.For(c.Name())
		if conf == nil {
			unregList = append(unregList, c)
			continue
		}

		if err := c.UpdateConfig(conf); err != nil {
			log.ErrorContext(ctx, "Failed to update config for check", "check", c.Name(), "error", err)
		}
		delete(newChecks, c.Name())
	}

	for _, c := range unregList {
		cc.UnregisterCheck(ctx, c)
	}

	for _, c := range newChecks {
		if err := cc.RegisterCheck(ctx, c); err != nil {
			log.ErrorContext(ctx, "Failed to register check", "check", c.Name(), "error", err)
		}
	}
}

// RegisterCheck registers the metrics of a check and starts it.
func (cc *ChecksController) RegisterCheck(ctx context.Context, check checks.Check) error {
	log := logger.FromContext(ctx).With("check", check.Name())

	for _, collector := range check.GetMetricCollectors() {
		if err := cc.metrics.GetRegistry().Register(collector); err != nil {
			log.ErrorContext(ctx, "Could not register metrics collector", "error", err)
			return err
		}
	}

	cc.checks.Add(check)
	go func() {
		err := check.Run(ctx, cc.cResult)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		select {
		case cc.cErr <- &ErrRunningCheck{Check: check, Err: err}:
		case <-ctx.Done():
		}
	}()

	log.InfoContext(ctx, "Check registered")
	return nil
}

// UnregisterCheck stops the check and removes its metrics.
func (cc *ChecksController) UnregisterCheck(ctx context.Context, check checks.Check) {
	log := logger.FromContext(ctx).With("check", check.Name())

	if _, ok := cc.checks.Get(check.Name()); !ok {
		log.DebugContext(ctx, "Check is not registered")
		return
	}

	for _, collector := range check.GetMetricCollectors() {
		if !cc.metrics.GetRegistry().Unregister(collector) {
			log.ErrorContext(ctx, "Could not unregister metrics collector")
		}
	}

	check.Shutdown()
	cc.checks.Delete(check)
	log.InfoContext(ctx, "Check unregistered")
}
