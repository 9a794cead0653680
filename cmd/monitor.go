// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/netdiag/internal/logger"
	"github.com/telekom/netdiag/pkg/checks"
	"github.com/telekom/netdiag/pkg/config"
	"github.com/telekom/netdiag/pkg/metrics"
	"github.com/telekom/netdiag/pkg/monitor"
)

// NewCmdMonitor creates the monitor command
func NewCmdMonitor() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Trace the configured targets periodically",
		Long: "Monitor loads the runtime configuration, traces its targets periodically and exposes\n" +
			"the results via an API and Prometheus metrics.",
		PreRunE: bindFlags,
		RunE:    runMonitor,
	}

	NewFlag("name", "name").String().Bind(cmd, "", "DNS name of the monitor instance")
	NewFlag("api.address", "api-address").String().Bind(cmd, ":8080", "api: the address the server is listening on")
	NewFlag("api.tls.enabled", "api-tls-enabled").Bool().Bind(cmd, false, "api: serve over https")
	NewFlag("api.tls.certPath", "api-tls-cert-path").String().Bind(cmd, "", "api: path to the tls certificate")
	NewFlag("api.tls.keyPath", "api-tls-key-path").String().Bind(cmd, "", "api: path to the tls key")

	NewFlag("loader.type", "loader-type").String().Bind(cmd, "file", "loader: where to load the runtime configuration from: http or file")
	NewFlag("loader.interval", "loader-interval").Duration().Bind(cmd, 5*time.Minute, "loader: interval to reload the runtime configuration, 0 loads it once")
	NewFlag("loader.http.url", "loader-http-url").String().Bind(cmd, "", "http loader: url of the runtime configuration")
	NewFlag("loader.http.token", "loader-http-token").String().Bind(cmd, "", "http loader: bearer token")
	NewFlag("loader.http.timeout", "loader-http-timeout").Duration().Bind(cmd, 30*time.Second, "http loader: timeout of a single request")
	NewFlag("loader.http.retry.count", "loader-http-retry-count").Int().Bind(cmd, checks.DefaultRetry.Count, "http loader: number of retries")
	NewFlag("loader.http.retry.delay", "loader-http-retry-delay").Duration().Bind(cmd, checks.DefaultRetry.Delay, "http loader: initial delay between retries")
	NewFlag("loader.file.path", "loader-file-path").String().Bind(cmd, "config.yaml", "file loader: path of the runtime configuration")

	NewFlag("telemetry.enabled", "telemetry-enabled").Bool().Bind(cmd, false, "telemetry: export traces")
	NewFlag("telemetry.exporter", "telemetry-exporter").String().Bind(cmd, string(metrics.NOOP), "telemetry: exporter: http, grpc, stdout or noop")
	NewFlag("telemetry.url", "telemetry-url").String().Bind(cmd, "", "telemetry: url of the otlp collector")
	NewFlag("telemetry.token", "telemetry-token").String().Bind(cmd, "", "telemetry: bearer token of the otlp collector")

	NewFlag("history.enabled", "history-enabled").Bool().Bind(cmd, false, "history: store every trace")
	NewFlag("history.path", "history-path").String().Bind(cmd, defaultHistoryPath(), "history: path of the database")

	return cmd
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	log := logger.NewLogger()
	ctx := logger.IntoContext(cmd.Context(), log)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(ctx); err != nil {
		return fmt.Errorf("error while validating the config: %w", err)
	}

	log.InfoContext(ctx, "Running monitor", "name", cfg.Name, "version", cmd.Root().Version)
	err := monitor.New(cfg, cmd.Root().Version).Run(ctx)
	if errors.Is(err, monitor.ErrFinalShutdown) && ctx.Err() != nil {
		log.InfoContext(ctx, "Monitor stopped")
		return nil
	}
	return err
}
