// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/telekom/netdiag/internal/helper"
	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/pkg"
	"github.com/telekom/netdiag/pkg/checks/runtime"
	"gopkg.in/yaml.v3"
)

var _ Loader = (*HttpLoader)(nil)

type HttpLoader struct {
	config   LoaderConfig
	cRuntime chan<- runtime.Config
	client   *http.Client
	done     chan struct{}
}

func NewHttpLoader(cfg *Config, cRuntime chan<- runtime.Config) *HttpLoader {
	return &HttpLoader{
		config:   cfg.Loader,
		cRuntime: cRuntime,
		client: &http.Client{
			Timeout: cfg.Loader.Http.Timeout,
		},
		done: make(chan struct{}, 1),
	}
}

// Run gets the runtime configuration from the remote url.
// Failed requests are retried with the configured backoff.
// If the interval is 0, the configuration is only fetched once and the loader is disabled.
func (hl *HttpLoader) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	var runtimeCfg runtime.Config
	getConfigRetry := helper.Retry(func(ctx context.Context) (err error) {
		runtimeCfg, err = hl.getRuntimeConfig(ctx)
		return err
	}, hl.config.Http.RetryCfg)

	err := getConfigRetry(ctx)
	if err != nil {
		log.WarnContext(ctx, "Could not get remote runtime configuration", "error", err)
		err = fmt.Errorf("could not get remote runtime configuration: %w", err)
	} else if !hl.send(ctx, runtimeCfg) {
		return ctx.Err()
	}

	if hl.config.Interval == 0 {
		log.InfoContext(ctx, "HTTP Loader disabled")
		return err
	}

	tick := time.NewTicker(hl.config.Interval)
	defer tick.Stop()

	for {
		select {
		case <-hl.done:
			log.InfoContext(ctx, "HTTP Loader terminated")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := getConfigRetry(ctx); err != nil {
				log.WarnContext(ctx, "Could not get remote runtime configuration", "error", err)
				continue
			}

			log.DebugContext(ctx, "Successfully got remote runtime configuration")
			if !hl.send(ctx, runtimeCfg) {
				return ctx.Err()
			}
		}
	}
}

func (hl *HttpLoader) send(ctx context.Context, cfg runtime.Config) bool {
	select {
	case hl.cRuntime <- cfg:
		return true
	case <-ctx.Done():
		return false
	}
}

// getRuntimeConfig gets the remote runtime configuration
func (hl *HttpLoader) getRuntimeConfig(ctx context.Context) (cfg runtime.Config, err error) {
	log := logger.FromContext(ctx).With("url", hl.config.Http.Url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hl.config.Http.Url, http.NoBody)
	if err != nil {
		log.ErrorContext(ctx, "Could not create http GET request", "error", err)
		return cfg, err
	}
	req.Header.Set("User-Agent", userAgent())
	if hl.config.Http.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", hl.config.Http.Token))
	}

	res, err := hl.client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		log.ErrorContext(ctx, "Http get request failed", "error", err)
		return cfg, err
	}
	defer func() {
		cerr := res.Body.Close()
		if cerr != nil {
			log.ErrorContext(ctx, "Failed to close response body", "error", cerr)
		}
		err = errors.Join(cerr, err)
	}()

	if res.StatusCode != http.StatusOK {
		log.ErrorContext(ctx, "Http get request failed", "status", res.Status)
		return cfg, fmt.Errorf("request failed, status is %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.ErrorContext(ctx, "Could not read response body", "error", err)
		return cfg, err
	}

	if err := yaml.Unmarshal(body, &cfg); err != nil {
		log.ErrorContext(ctx, "Could not unmarshal response", "error", err)
		return cfg, fmt.Errorf("failed to parse runtime configuration: %w", err)
	}
	log.DebugContext(ctx, "Successfully got response")

	return cfg, nil
}

func (hl *HttpLoader) Shutdown(ctx context.Context) {
	log := logger.FromContext(ctx)
	select {
	case hl.done <- struct{}{}:
		log.DebugContext(ctx, "Sending signal to shut down http loader")
	default:
	}
}

// userAgent identifies the loader to the config server
func userAgent() string {
	if pkg.Version == "" {
		return "netdiag"
	}
	return "netdiag/" + pkg.Version
}
