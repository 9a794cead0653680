// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/pkg/api"
	"gopkg.in/yaml.v3"
)

const urlParamCheckName = "checkName"

// routes returns the endpoints served by the monitor
func (m *Monitor) routes() []api.Route {
	registry := m.metrics.GetRegistry()
	return []api.Route{
		{Path: "/openapi", Method: http.MethodGet, Handler: m.handleOpenAPI},
		{Path: "/v1/metrics/{checkName}", Method: http.MethodGet, Handler: m.handleCheckMetrics},
		{
			Path: "/metrics", Method: http.MethodGet,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}).ServeHTTP,
		},
	}
}

// handleOpenAPI serves the openapi document of all running checks as yaml
func (m *Monitor) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	doc, err := api.NewOpenapi(m.version, m.controller.checks.Iter())
	if err != nil {
		log.ErrorContext(r.Context(), "Failed to create openapi document", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		log.ErrorContext(r.Context(), "Failed to marshal openapi document", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.ErrorContext(r.Context(), "Failed to write response", "error", err)
	}
}

// handleCheckMetrics serves the latest result of a check
func (m *Monitor) handleCheckMetrics(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	name := chi.URLParam(r, urlParamCheckName)
	if name == "" {
		http.Error(w, "missing check name", http.StatusBadRequest)
		return
	}

	res, ok := m.db.Get(name)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}
