// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net"
)

// Config is the configuration of the API server
type Config struct {
	// ListeningAddress is the address the server listens on, e.g. ":8080"
	ListeningAddress string `yaml:"address" mapstructure:"address"`
	// Tls holds the tls configuration of the server
	Tls TLSConfig `yaml:"tls" mapstructure:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
	KeyPath  string `yaml:"keyPath" mapstructure:"keyPath"`
}

// Validate checks the listening address and the tls files
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListeningAddress); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if c.Tls.Enabled && (c.Tls.CertPath == "" || c.Tls.KeyPath == "") {
		return errors.New("tls is enabled but cert or key path is missing")
	}
	return nil
}
