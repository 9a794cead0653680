// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidOptions is returned when the options of a trace are invalid.
var ErrInvalidOptions = errors.New("invalid traceroute options")

var (
	// errICMPNotAvailable is returned when neither raw ICMP sockets nor unprivileged
	// ICMP datagram sockets may be opened by the process.
	errICMPNotAvailable = errors.New("no NET_RAW capabilities and no unprivileged ICMP sockets, ICMP not available")
	errEmptyTarget      = errors.New("target must not be empty")
	errNoAddress        = errors.New("no address found")
	errNoDeadline       = errors.New("no deadline set for probe")
	errForeignMessage   = errors.New("ICMP message does not belong to the probe")
)

// ResolutionError is returned when the target of a trace cannot be resolved
// to an IP address. No probe is sent in that case.
type ResolutionError struct {
	Target string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve target %q: %v", e.Target, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ProbeError describes why a single probe failed. It never aborts a trace;
// the hop is recorded with [OutcomeOther] instead.
type ProbeError struct {
	TTL int
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe with ttl %d failed: %v", e.TTL, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// isTimeout reports whether err means that nothing answered in time.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
