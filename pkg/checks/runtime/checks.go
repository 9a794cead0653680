// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/telekom/netdiag/pkg/checks"
)

// Checks holds the running checks by name.
type Checks struct {
	mu     sync.RWMutex
	checks map[string]checks.Check
}

// Add adds a check, replacing a check with the same name.
func (c *Checks) Add(check checks.Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checks == nil {
		c.checks = map[string]checks.Check{}
	}
	c.checks[check.Name()] = check
}

// Delete deletes a check.
func (c *Checks) Delete(check checks.Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, check.Name())
}

// Get returns the check with the given name.
func (c *Checks) Get(name string) (checks.Check, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	check, ok := c.checks[name]
	return check, ok
}

// Iter returns a snapshot of the checks sorted by name.
func (c *Checks) Iter() iter.Seq[checks.Check] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := slices.Sorted(maps.Keys(c.checks))
	snapshot := make([]checks.Check, 0, len(names))
	for _, name := range names {
		snapshot = append(snapshot, c.checks[name])
	}
	return slices.Values(snapshot)
}
