// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("uses the first handler given", func(t *testing.T) {
		h := slog.NewTextHandler(&bytes.Buffer{}, nil)
		log := NewLogger(h, slog.NewJSONHandler(&bytes.Buffer{}, nil))
		assert.Same(t, h, log.Handler())
	})

	t.Run("honours LOG_LEVEL without handlers", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "DEBUG")
		log := NewLogger()
		assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))
	})
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := NewLogger(slog.NewJSONHandler(&buf, nil))

	ctx := IntoContext(t.Context(), want)
	assert.Same(t, want, FromContext(ctx))

	child, cancel := NewContextWithLogger(ctx)
	defer cancel()
	assert.Same(t, want, FromContext(child), "child context must inherit the parent logger")
	assert.NotEqual(t, ctx, child)

	cancel()
	assert.ErrorIs(t, child.Err(), context.Canceled)
}

func TestFromContext_Fallback(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "empty context", ctx: t.Context()},
		{name: "nil context", ctx: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", "")
			log := FromContext(tt.ctx)
			require.NotNil(t, log)
			assert.IsType(t, &slog.JSONHandler{}, log.Handler())
		})
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	parent := IntoContext(t.Context(), NewLogger(slog.NewJSONHandler(&buf, nil)))

	handler := Middleware(parent)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Value(logger{}).(*slog.Logger)
		assert.True(t, ok, "request context should carry a logger")
		FromContext(r.Context()).Info("handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/traceroute", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"path":"/v1/metrics/traceroute"`)
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		level     string
		wantText  bool
		wantLevel slog.Level
	}{
		{name: "defaults", wantLevel: slog.LevelInfo},
		{name: "text debug", format: "text", level: "debug", wantText: true, wantLevel: slog.LevelDebug},
		{name: "json warn", format: "JSON", level: "WARN", wantLevel: slog.LevelWarn},
		{name: "unknown level", format: "TEXT", level: "LOUD", wantText: true, wantLevel: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", tt.format)
			t.Setenv("LOG_LEVEL", tt.level)

			h := newHandler()
			if tt.wantText {
				assert.IsType(t, &slog.TextHandler{}, h)
			} else {
				assert.IsType(t, &slog.JSONHandler{}, h)
			}
			assert.True(t, h.Enabled(t.Context(), tt.wantLevel))
			assert.False(t, h.Enabled(t.Context(), tt.wantLevel-1))
		})
	}
}

func TestGetLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"trace":   slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, getLevel(in), "getLevel(%q)", in)
	}
}
