// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"errors"
	"iter"

	"github.com/telekom/netdiag/pkg/checks"
	"github.com/telekom/netdiag/pkg/checks/traceroute"
)

// Config holds the runtime configuration of the checks the monitor runs.
type Config struct {
	Traceroute *traceroute.Config `yaml:"traceroute" json:"traceroute" mapstructure:"traceroute"`
}

// Empty returns true if no checks are configured
func (c Config) Empty() bool {
	for range c.Iter() {
		return false
	}
	return true
}

func (c Config) Validate() (err error) {
	for cfg := range c.Iter() {
		if vErr := cfg.Validate(); vErr != nil {
			err = errors.Join(err, vErr)
		}
	}

	return err
}

// Iter returns configured checks as an iterator
func (c Config) Iter() iter.Seq[checks.Runtime] {
	return func(yield func(checks.Runtime) bool) {
		if c.Traceroute != nil {
			if !yield(c.Traceroute) {
				return
			}
		}
	}
}

// HasTracerouteCheck returns true if a traceroute check is configured
func (c Config) HasTracerouteCheck() bool {
	return c.Traceroute != nil
}

// HasCheck returns true if a check with the given name is configured
func (c Config) HasCheck(name string) bool {
	return c.For(name) != nil
}

// For returns the runtime configuration for the check with the given name
func (c Config) For(name string) checks.Runtime {
	if name == traceroute.CheckName && c.HasTracerouteCheck() {
		return c.Traceroute
	}
	return nil
}
