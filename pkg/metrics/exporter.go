// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Exporter selects where spans are exported to
type Exporter string

const (
	// HTTP exports spans to an otlp collector over http
	HTTP Exporter = "http"
	// GRPC exports spans to an otlp collector over grpc
	GRPC Exporter = "grpc"
	// STDOUT writes spans to stdout
	STDOUT Exporter = "stdout"
	// NOOP drops all spans
	NOOP Exporter = "noop"
)

// String returns the exporter name, an empty exporter is [NOOP]
func (e Exporter) String() string {
	if e == "" {
		return string(NOOP)
	}
	return string(e)
}

// Validate returns an error if the exporter is not supported
func (e Exporter) Validate() error {
	switch e {
	case HTTP, GRPC, STDOUT, NOOP, "":
		return nil
	default:
		return fmt.Errorf("unsupported exporter %q", string(e))
	}
}

// IsExporting returns true if the exporter sends spans to a collector
func (e Exporter) IsExporting() bool {
	return e == HTTP || e == GRPC
}

// Create creates the span exporter
func (e Exporter) Create(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	switch e {
	case HTTP:
		return newHTTPExporter(ctx, cfg)
	case GRPC:
		return newGRPCExporter(ctx, cfg)
	case STDOUT:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return &noopExporter{}, nil
	}
}

func newHTTPExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(cfg.Url),
		otlptracehttp.WithHeaders(cfg.headers()),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
	} else {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func newGRPCExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpointURL(cfg.Url),
		otlptracegrpc.WithHeaders(cfg.headers()),
	}
	if tlsCfg != nil {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

var _ sdktrace.SpanExporter = (*noopExporter)(nil)

type noopExporter struct{}

func (*noopExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return nil
}

func (*noopExporter) Shutdown(context.Context) error {
	return nil
}
