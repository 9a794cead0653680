// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/telekom/netdiag/internal/traceroute"
	"github.com/telekom/netdiag/pkg/checks"
)

const maxHostnameLength = 253

// Config is the configuration for the traceroute check
type Config struct {
	// Targets is a list of host names or IP addresses to trace.
	Targets []string `json:"targets" yaml:"targets" mapstructure:"targets"`
	// Interval is the interval at which to run the traceroute check.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
	// Options are the options for every trace of the check.
	traceroute.Options `json:",inline" yaml:",inline" mapstructure:",squash"`
}

// MarshalJSON keeps targets and interval next to the inlined options.
func (c Config) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(c.Options)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["targets"] = c.Targets
	m["interval"] = c.Interval.String()
	return json.Marshal(m)
}

func (c *Config) UnmarshalJSON(b []byte) error {
	var v struct {
		Targets  []string `json:"targets"`
		Interval string   `json:"interval"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var opts traceroute.Options
	if err := json.Unmarshal(b, &opts); err != nil {
		return err
	}
	var interval time.Duration
	if v.Interval != "" {
		var err error
		if interval, err = time.ParseDuration(v.Interval); err != nil {
			return fmt.Errorf("invalid interval %q: %w", v.Interval, err)
		}
	}
	*c = Config{Targets: v.Targets, Interval: interval, Options: opts}
	return nil
}

func (c *Config) For() string {
	return CheckName
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return checks.ErrInvalidConfig{CheckName: CheckName, Field: "traceroute.interval", Reason: "must be greater than 0"}
	}

	if err := c.Options.Validate(); err != nil {
		return checks.ErrInvalidConfig{CheckName: CheckName, Field: "traceroute.options", Reason: err.Error()}
	}

	seen := make(map[string]struct{}, len(c.Targets))
	for i, t := range c.Targets {
		if !isValidTarget(t) {
			return checks.ErrInvalidConfig{CheckName: CheckName, Field: fmt.Sprintf("traceroute.targets[%d]", i), Reason: "invalid host name or ip"}
		}
		if _, ok := seen[t]; ok {
			return checks.ErrInvalidConfig{CheckName: CheckName, Field: fmt.Sprintf("traceroute.targets[%d]", i), Reason: "duplicate target"}
		}
		seen[t] = struct{}{}
	}
	return nil
}

// isValidTarget reports whether target is an IP address or a syntactically valid host name.
func isValidTarget(target string) bool {
	if _, err := netip.ParseAddr(target); err == nil {
		return true
	}

	name := strings.TrimSuffix(target, ".")
	if name == "" || len(name) > maxHostnameLength {
		return false
	}
	for label := range strings.SplitSeq(name, ".") {
		if !isValidLabel(label) {
			return false
		}
	}
	return true
}

func isValidLabel(label string) bool {
	if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
