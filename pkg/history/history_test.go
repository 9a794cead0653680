// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/netdiag/internal/traceroute"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.Context(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func newResult(target string, hops ...traceroute.Hop) *traceroute.Result {
	return &traceroute.Result{
		Target:  target,
		Addr:    "192.0.2.1",
		Options: traceroute.Options{MaxTTL: 10, Timeout: 2 * time.Second, MaxConsecutiveFailures: 3},
		Hops:    hops,
		Status:  traceroute.StatusCompleted,
	}
}

func TestNew_invalidPath(t *testing.T) {
	_, err := New(t.Context(), "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestStore_SaveAndList(t *testing.T) {
	s := newTestStore(t)
	hops := []traceroute.Hop{
		{TTL: 1, Addr: traceroute.HopAddress{IP: "10.0.0.1"}, Name: "gw.local", Outcome: traceroute.OutcomeTTLExpired, Latency: 1500 * time.Microsecond},
		{TTL: 2, Outcome: traceroute.OutcomeTimedOut, Latency: 2 * time.Second},
		{TTL: 3, Outcome: traceroute.OutcomeOther, Error: "probe with ttl 3 failed: permission denied"},
		{TTL: 4, Addr: traceroute.HopAddress{IP: "192.0.2.1"}, Outcome: traceroute.OutcomeSuccess, Latency: 12 * time.Millisecond},
	}

	first := newResult("example.com", hops...)
	require.NoError(t, s.Save(t.Context(), first))
	require.NoError(t, s.Save(t.Context(), newResult("other.example")))
	require.NoError(t, s.Save(t.Context(), newResult("example.com", hops[:1]...)))

	all, err := s.List(t.Context(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"example.com", "other.example", "example.com"}, []string{all[0].Target, all[1].Target, all[2].Target})
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest entry first")

	got := all[2]
	if diff := cmp.Diff(first, got.Result()); diff != "" {
		t.Errorf("stored trace differs (-want +got):\n%s", diff)
	}
	assert.Equal(t, traceroute.Summarize(first), got.Summary)
	assert.Empty(t, all[1].Hops)
	assert.NotNil(t, all[1].Hops)

	filtered, err := s.List(t.Context(), Filter{Target: "example.com", Limit: 1})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, all[0].ID, filtered[0].ID)

	none, err := s.List(t.Context(), Filter{Target: "unknown.example"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := New(t.Context(), path)
	require.NoError(t, err)
	require.NoError(t, s.Save(t.Context(), newResult("example.com")))
	require.NoError(t, s.Close())

	s, err = New(t.Context(), path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	entries, err := s.List(t.Context(), Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_Save_nil(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Save(t.Context(), nil))
}
