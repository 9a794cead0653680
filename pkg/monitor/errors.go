// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"errors"
	"fmt"

	"github.com/telekom/netdiag/pkg/checks"
)

// ErrFinalShutdown is returned by [Monitor.Run] once all components are shut down
var ErrFinalShutdown = errors.New("monitor was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of the monitor
type ErrShutdown struct {
	errAPI     error
	errMetrics error
	errHistory error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errMetrics != nil || e.errHistory != nil
}

func (e ErrShutdown) Error() string {
	if err := errors.Join(e.errAPI, e.errMetrics, e.errHistory); err != nil {
		return err.Error()
	}
	return "no shutdown errors"
}

type ErrRunningCheck struct {
	Check checks.Check
	Err   error
}

func (e *ErrRunningCheck) Error() string {
	return fmt.Sprintf("check %s failed: %v", e.Check.Name(), e.Err)
}

func (e *ErrRunningCheck) Unwrap() error {
	return e.Err
}
