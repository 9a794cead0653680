// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/telekom/netdiag/internal/helper"
	"github.com/telekom/netdiag/pkg/api"
	"github.com/telekom/netdiag/pkg/metrics"
)

// Config is the startup configuration of the monitor
type Config struct {
	// Name is the DNS name of the monitor
	Name string `yaml:"name" mapstructure:"name"`
	// Loader is the configuration for the loader
	Loader LoaderConfig `yaml:"loader" mapstructure:"loader"`
	// Api is the configuration for the api server
	Api api.Config `yaml:"api" mapstructure:"api"`
	// Telemetry is the configuration for the telemetry
	Telemetry metrics.Config `yaml:"telemetry" mapstructure:"telemetry"`
	// History is the configuration of the trace history
	History HistoryConfig `yaml:"history" mapstructure:"history"`
}

// LoaderConfig is the configuration for loader
type LoaderConfig struct {
	Type     string           `yaml:"type" mapstructure:"type"`
	Interval time.Duration    `yaml:"interval" mapstructure:"interval"`
	Http     HttpLoaderConfig `yaml:"http" mapstructure:"http"`
	File     FileLoaderConfig `yaml:"file" mapstructure:"file"`
}

// HttpLoaderConfig is the configuration for the http loader
type HttpLoaderConfig struct {
	Url      string             `yaml:"url" mapstructure:"url"`
	Token    string             `yaml:"token" mapstructure:"token"`
	Timeout  time.Duration      `yaml:"timeout" mapstructure:"timeout"`
	RetryCfg helper.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// FileLoaderConfig is the configuration for the file loader
type FileLoaderConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// HistoryConfig is the configuration of the trace history
type HistoryConfig struct {
	// Enabled stores every trace of the monitor
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Path is the path of the SQLite database
	Path string `yaml:"path" mapstructure:"path"`
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}

// HasHistory returns true if traces are stored
func (c *Config) HasHistory() bool {
	return c.History.Enabled
}
