// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/telekom/netdiag/internal/logger"
)

const readHeaderTimeout = 5 * time.Second

var _ API = (*api)(nil)

//go:generate go tool moq -out api_moq.go . API
type API interface {
	// Run serves the registered routes until the server is shut down
	Run(ctx context.Context) error
	// Shutdown gracefully stops the server
	Shutdown(ctx context.Context) error
	// RegisterRoutes adds routes to the server. It must be called before Run.
	RegisterRoutes(ctx context.Context, routes ...Route) error
}

// Route is a single endpoint of the API
type Route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

type api struct {
	server  *http.Server
	router  chi.Router
	tls     TLSConfig
	started atomic.Bool
}

// New creates a new API server
func New(cfg Config) API {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	return &api{
		server: &http.Server{
			Addr:              cfg.ListeningAddress,
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		router: r,
		tls:    cfg.Tls,
	}
}

// Run starts the server and blocks until it stops or the context is done
func (a *api) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	a.started.Store(true)

	cErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "Serving API", "address", a.server.Addr, "tls", a.tls.Enabled)
		var err error
		if a.tls.Enabled {
			err = a.server.ListenAndServeTLS(a.tls.CertPath, a.tls.KeyPath)
		} else {
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			log.InfoContext(ctx, "API server closed")
			cErr <- nil
			return
		}
		log.ErrorContext(ctx, "Failed to serve API", "error", err)
		cErr <- fmt.Errorf("failed serving API: %w", err)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-cErr:
		return err
	}
}

// Shutdown gracefully stops the server
func (a *api) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to shutdown API server", "error", err)
		return fmt.Errorf("failed shutting down API server: %w", err)
	}
	return nil
}

// RegisterRoutes adds the routes to the router. Every request
// carries the logger of ctx, annotated with method and path.
func (a *api) RegisterRoutes(ctx context.Context, routes ...Route) error {
	if a.started.Load() {
		return ErrServerAlreadyStarted
	}

	r := a.router.With(logger.Middleware(ctx))
	for _, route := range routes {
		r.Method(route.Method, route.Path, route.Handler)
	}
	return nil
}
