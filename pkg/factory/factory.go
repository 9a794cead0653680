// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"errors"

	"github.com/telekom/netdiag/pkg/checks"
	"github.com/telekom/netdiag/pkg/checks/runtime"
	"github.com/telekom/netdiag/pkg/checks/traceroute"
)

var (
	errNilConfig    = errors.New("config is nil")
	errUnknownCheck = errors.New("unknown check type")
)

// Option configures the checks created by the factory.
type Option func(checks.Check)

// WithRecorder sets the recorder of all checks that store their traces.
func WithRecorder(r traceroute.Recorder) Option {
	return func(c checks.Check) {
		if rc, ok := c.(interface{ SetRecorder(traceroute.Recorder) }); ok {
			rc.SetRecorder(r)
		}
	}
}

// NewCheck creates a new check instance from the given config
func NewCheck(cfg checks.Runtime, opts ...Option) (checks.Check, error) {
	if cfg == nil {
		return nil, errNilConfig
	}

	f, ok := registry[cfg.For()]
	if !ok {
		return nil, errUnknownCheck
	}

	c := f()
	for _, opt := range opts {
		opt(c)
	}
	return c, c.UpdateConfig(cfg)
}

// NewChecksFromConfig creates all checks defined provided config
func NewChecksFromConfig(cfg runtime.Config, opts ...Option) (map[string]checks.Check, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := make(map[string]checks.Check)
	for c := range cfg.Iter() {
		check, err := NewCheck(c, opts...)
		if err != nil {
			return nil, err
		}
		result[check.Name()] = check
	}
	return result, nil
}

// registry is a convenience map to create new checks
var registry = map[string]func() checks.Check{
	traceroute.CheckName: traceroute.NewCheck,
}
