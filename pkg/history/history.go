// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package history stores finished traces in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/internal/traceroute"

	_ "modernc.org/sqlite"
)

// ErrInvalidPath is returned when no database path is given
var ErrInvalidPath = errors.New("invalid history database path")

// Entry is a stored trace
type Entry struct {
	ID        int64              `json:"id" yaml:"id"`
	Target    string             `json:"target" yaml:"target"`
	Addr      string             `json:"addr" yaml:"addr"`
	Status    traceroute.Status  `json:"status" yaml:"status"`
	Options   traceroute.Options `json:"options" yaml:"options"`
	Hops      []traceroute.Hop   `json:"hops" yaml:"hops"`
	Summary   traceroute.Summary `json:"summary" yaml:"summary"`
	CreatedAt time.Time          `json:"createdAt" yaml:"createdAt"`
}

// Result returns the trace of the entry
func (e *Entry) Result() *traceroute.Result {
	return &traceroute.Result{
		Target:  e.Target,
		Addr:    e.Addr,
		Options: e.Options,
		Hops:    e.Hops,
		Status:  e.Status,
	}
}

// Filter narrows down the entries returned by [Store.List]
type Filter struct {
	// Target only returns traces of this target if set
	Target string
	// Limit is the maximum number of entries. Zero returns all entries.
	Limit int
}

// Store persists traces in SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database at path and creates the schema if needed
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.FromContext(ctx).DebugContext(ctx, "Opened history database", "path", path)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS traces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		addr TEXT NOT NULL,
		status TEXT NOT NULL,
		options JSON NOT NULL,
		hops JSON NOT NULL,
		success_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		total_latency_ns INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_traces_target ON traces(target, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save stores the trace
func (s *Store) Save(ctx context.Context, res *traceroute.Result) error {
	if res == nil {
		return errors.New("no trace to save")
	}

	opts, err := json.Marshal(res.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	hops := res.Hops
	if hops == nil {
		hops = []traceroute.Hop{}
	}
	hopsJSON, err := json.Marshal(hops)
	if err != nil {
		return fmt.Errorf("failed to marshal hops: %w", err)
	}

	sum := traceroute.Summarize(res)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO traces (target, addr, status, options, hops, success_count, failed_count, total_latency_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.Target, res.Addr, string(res.Status), string(opts), string(hopsJSON),
		sum.SuccessCount, sum.FailedCount, int64(sum.TotalLatency), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert trace: %w", err)
	}

	logger.FromContext(ctx).DebugContext(ctx, "Saved trace", "target", res.Target, "hops", len(res.Hops))
	return nil
}

// List returns the stored traces, newest first
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, addr, status, options, hops, success_count, failed_count, total_latency_ns, created_at
		FROM traces
		WHERE ? = '' OR target = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, f.Target, f.Target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                Entry
			status           string
			opts, hops       []byte
			latency, created int64
		)
		if err := rows.Scan(&e.ID, &e.Target, &e.Addr, &status, &opts, &hops,
			&e.Summary.SuccessCount, &e.Summary.FailedCount, &latency, &created); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		if err := json.Unmarshal(opts, &e.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options of trace %d: %w", e.ID, err)
		}
		if err := json.Unmarshal(hops, &e.Hops); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hops of trace %d: %w", e.ID, err)
		}
		e.Status = traceroute.Status(status)
		e.Summary.TotalLatency = time.Duration(latency)
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating traces: %w", err)
	}
	return entries, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
