// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net"
	"net/netip"
	"time"
)

var _ Resolver = (*net.Resolver)(nil)

// Resolver looks up addresses and names. [net.DefaultResolver] satisfies it.
//
//go:generate go tool moq -out resolver_moq.go . Resolver
type Resolver interface {
	// LookupNetIP looks up host and returns its IP addresses.
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
	// LookupAddr performs a reverse lookup for the given address.
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// resolveTarget turns the target into the address that is probed.
// Literal addresses are used as they are; host names are resolved and
// the first IPv4 address is preferred over IPv6 ones.
func resolveTarget(ctx context.Context, r Resolver, target string) (netip.Addr, error) {
	if target == "" {
		return netip.Addr{}, &ResolutionError{Target: target, Err: errEmptyTarget}
	}
	if addr, err := netip.ParseAddr(target); err == nil {
		return addr.Unmap(), nil
	}

	addrs, err := r.LookupNetIP(ctx, "ip", target)
	if err != nil {
		return netip.Addr{}, &ResolutionError{Target: target, Err: err}
	}
	if len(addrs) == 0 {
		return netip.Addr{}, &ResolutionError{Target: target, Err: errNoAddress}
	}

	for _, addr := range addrs {
		if addr.Unmap().Is4() {
			return addr.Unmap(), nil
		}
	}
	return addrs[0], nil
}

// resolveName performs a reverse DNS lookup for the given address.
// If the lookup fails or returns no names, it returns an empty string.
func resolveName(ctx context.Context, r Resolver, addr net.Addr, timeout time.Duration) string {
	ip := ipFromAddr(addr)
	if ip == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	names, err := r.LookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}
