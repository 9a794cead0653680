// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/telekom/netdiag/internal/logger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// randomID returns a random identifier for echo requests.
func randomID() int {
	return rand.N(1<<16-1) + 1 // #nosec G404 // math.rand is fine here, we're not doing encryption
}

// ipFromAddr extracts the IP address from a [net.Addr].
func ipFromAddr(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		if a != nil {
			return a.IP
		}
	case *net.TCPAddr:
		if a != nil {
			return a.IP
		}
	case *net.IPAddr:
		if a != nil {
			return a.IP
		}
	}
	return nil
}

// logHops logs the hops in a structured format.
func logHops(ctx context.Context, hops []Hop) {
	log := logger.FromContext(ctx)
	for _, hop := range hops {
		log.DebugContext(ctx, hop.String())
	}
}

// wrapError wraps an error with a message and logs it at debug level.
// It also records the error in the current OpenTelemetry span.
func wrapError(ctx context.Context, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	caser := cases.Title(language.English)
	text := fmt.Sprintf(msg, args...)

	log.DebugContext(ctx, caser.String(text), "error", err)
	span.SetStatus(codes.Error, text)
	span.RecordError(err)
	return fmt.Errorf("%s: %w", text, err)
}
