// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package traceroute provides an ICMP echo based traceroute.
//
// It exposes a [Client] that discovers the routers on the path to a
// target by sending ICMP echo requests with increasing TTL values and
// classifying whatever answers each probe. Hops are probed strictly one
// after another, starting at TTL 1, until the target replies, the
// maximum TTL is used up, too many consecutive probes fail or the
// caller cancels the context.
//
// Each probe owns its socket for exactly as long as the probe runs.
// A raw ICMP socket is preferred; on Linux the package falls back to an
// unprivileged ICMP datagram socket and reads the routers' answers from
// the socket error queue when raw sockets are not permitted.
//
// Typical usage:
//
//	client := traceroute.NewClient()
//	opts := traceroute.DefaultOptions()
//	opts.MaxTTL = 20
//	res, err := client.Trace(ctx, "example.com", &opts)
//	if err != nil {
//		// the target could not be resolved or the options are invalid
//	}
//	fmt.Println(res.Summary())
//
// The package never writes to stdout. Progress is reported through the
// optional [Options.OnHop] observer, debug logs of the logger carried in
// the context and OpenTelemetry spans.
package traceroute
