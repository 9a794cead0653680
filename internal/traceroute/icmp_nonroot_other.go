// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package traceroute

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
)

// newEchoConn opens the socket for a single probe.
// Only raw sockets are supported on this platform.
func newEchoConn(dst netip.Addr, ttl int) (echoConn, error) {
	conn, err := newRawConn(dst, ttl)
	if err != nil && errors.Is(err, os.ErrPermission) {
		return nil, fmt.Errorf("%w: %w", errICMPNotAvailable, err)
	}
	return conn, err
}
