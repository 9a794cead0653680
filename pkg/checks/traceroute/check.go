// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/internal/traceroute"
	"github.com/telekom/netdiag/pkg/checks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ checks.Check = (*Traceroute)(nil)

const CheckName = "traceroute"

// Recorder persists finished traces.
//
//go:generate go tool moq -out recorder_moq.go . Recorder
type Recorder interface {
	Save(ctx context.Context, res *traceroute.Result) error
}

func NewCheck() checks.Check {
	c := &Traceroute{
		CheckBase: checks.CheckBase{
			Mu:       sync.Mutex{},
			DoneChan: make(chan struct{}, 1),
		},
		config:  Config{},
		client:  traceroute.NewClient(),
		metrics: newMetrics(),
	}
	c.tracer = otel.Tracer(c.Name())
	return c
}

type Traceroute struct {
	checks.CheckBase
	config   Config
	metrics  metrics
	client   traceroute.Client
	tracer   trace.Tracer
	recorder Recorder
}

// Result is the data of a traceroute check run, keyed by target.
type Result map[string]TargetResult

// TargetResult is the trace of a single target.
type TargetResult struct {
	// Addr is the resolved address of the target.
	Addr string `json:"addr" yaml:"addr"`
	// Status tells why the trace stopped. It is empty if the target could not be resolved.
	Status traceroute.Status `json:"status" yaml:"status"`
	// Hops are the probed hops ordered by TTL.
	Hops []traceroute.Hop `json:"hops" yaml:"hops"`
	// Summary is the overview of the hops.
	Summary traceroute.Summary `json:"summary" yaml:"summary"`
	// Error is set if the target could not be traced at all.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r TargetResult) reached() bool {
	return len(r.Hops) > 0 && r.Hops[len(r.Hops)-1].Outcome == traceroute.OutcomeSuccess
}

func newTargetResult(res *traceroute.Result) TargetResult {
	hops := res.Hops
	if hops == nil {
		hops = []traceroute.Hop{}
	}
	return TargetResult{
		Addr:    res.Addr,
		Status:  res.Status,
		Hops:    hops,
		Summary: traceroute.Summarize(res),
	}
}

// SetRecorder sets the recorder every finished trace is saved to.
func (tr *Traceroute) SetRecorder(r Recorder) {
	tr.Mu.Lock()
	defer tr.Mu.Unlock()
	tr.recorder = r
}

// Run runs the check in a loop sending results to the provided channel
func (tr *Traceroute) Run(ctx context.Context, cResult chan checks.ResultDTO) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	log.InfoContext(ctx, "Starting traceroute check", "interval", tr.interval().String())
	for {
		select {
		case <-ctx.Done():
			log.ErrorContext(ctx, "Context canceled", "error", ctx.Err())
			return ctx.Err()
		case <-tr.DoneChan:
			return nil
		case <-time.After(tr.interval()):
			res := tr.check(ctx)
			for target, r := range res {
				tr.metrics.Set(target, r)
			}
			cResult <- checks.ResultDTO{
				Name: tr.Name(),
				Result: &checks.Result{
					Data:      res,
					Timestamp: time.Now(),
				},
			}
			log.DebugContext(ctx, "Successfully finished traceroute check run")
		}
	}
}

func (tr *Traceroute) interval() time.Duration {
	tr.Mu.Lock()
	defer tr.Mu.Unlock()
	return tr.config.Interval
}

// GetConfig returns the current configuration of the check
func (tr *Traceroute) GetConfig() checks.Runtime {
	tr.Mu.Lock()
	defer tr.Mu.Unlock()
	c := tr.config
	return &c
}

func (tr *Traceroute) check(ctx context.Context) Result {
	log := logger.FromContext(ctx)
	ctx, span := tr.tracer.Start(ctx, "traceroute.check")
	defer span.End()

	tr.Mu.Lock()
	cfg := tr.config
	recorder := tr.recorder
	tr.Mu.Unlock()

	if len(cfg.Targets) == 0 {
		log.WarnContext(ctx, "No targets configured for traceroute check")
		return Result{}
	}
	span.SetAttributes(attribute.StringSlice("traceroute.targets", cfg.Targets))

	opts := cfg.Options
	results, err := tr.client.Run(ctx, cfg.Targets, &opts)
	res := make(Result, len(cfg.Targets))
	for target, r := range results {
		res[target] = newTargetResult(r)
		if recorder == nil {
			continue
		}
		if sErr := recorder.Save(ctx, r); sErr != nil {
			log.WarnContext(ctx, "Failed to save trace", "target", target, "error", sErr)
		}
	}

	if err != nil {
		log.ErrorContext(ctx, "Failed to trace some targets", "error", err)
		span.SetStatus(codes.Error, "Failed to trace some targets")
		span.RecordError(err)
		for target, msg := range failedTargets(err) {
			res[target] = TargetResult{Hops: []traceroute.Hop{}, Error: msg}
		}
	}

	return res
}

// failedTargets maps the targets of all resolution errors joined in err to their error message.
func failedTargets(err error) map[string]string {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	failed := map[string]string{}
	for _, e := range errs {
		var resErr *traceroute.ResolutionError
		if errors.As(e, &resErr) {
			failed[resErr.Target] = resErr.Error()
		}
	}
	return failed
}

// Shutdown is called once when the check is unregistered or the monitor shuts down
func (tr *Traceroute) Shutdown() {
	tr.DoneChan <- struct{}{}
	close(tr.DoneChan)
}

// UpdateConfig is called once when the check is registered
// This is also called while the check is running, if the runtime config is updated
// This should return an error if the config is invalid
func (tr *Traceroute) UpdateConfig(cfg checks.Runtime) error {
	if c, ok := cfg.(*Config); ok {
		tr.Mu.Lock()
		defer tr.Mu.Unlock()

		for _, target := range tr.config.Targets {
			if slices.Contains(c.Targets, target) {
				continue
			}
			// targets that never finished a run have no metrics yet
			var notFound checks.ErrMetricNotFound
			if err := tr.metrics.Remove(target); err != nil && !errors.As(err, &notFound) {
				return err
			}
		}

		tr.config = *c
		return nil
	}

	return checks.ErrConfigMismatch{
		Expected: CheckName,
		Current:  cfg.For(),
	}
}

// Schema returns an openapi3.SchemaRef of the result type returned by the check
func (tr *Traceroute) Schema() (*openapi3.SchemaRef, error) {
	return checks.OpenapiFromPerfData(Result{})
}

// GetMetricCollectors allows the check to provide prometheus metric collectors
func (tr *Traceroute) GetMetricCollectors() []prometheus.Collector {
	return tr.metrics.List()
}

// Name returns the name of the check
func (tr *Traceroute) Name() string {
	return CheckName
}

// RemoveLabelledMetrics removes the metrics which have the passed
// target as a label
func (tr *Traceroute) RemoveLabelledMetrics(target string) error {
	return tr.metrics.Remove(target)
}
