// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"
)

const (
	// DefaultMaxTTL is the default upper bound for the TTL of a probe.
	DefaultMaxTTL = 30
	// DefaultTimeout is the default time to wait for a single probe.
	DefaultTimeout = 5 * time.Second
	// DefaultPayloadSize is the default size of the echo request payload in bytes.
	DefaultPayloadSize = 32

	maxTTLLimit      = 255
	maxPayloadLimit  = 65507
	maxHopNameLength = 45
)

// Outcome classifies what answered a single probe.
type Outcome string

const (
	// OutcomeSuccess means the target itself answered with an echo reply.
	OutcomeSuccess Outcome = "success"
	// OutcomeTTLExpired means an intermediate router reported the TTL as exceeded.
	OutcomeTTLExpired Outcome = "ttl_expired"
	// OutcomeTimedOut means nothing answered within the probe timeout.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeUnreachable means a router reported the destination as unreachable.
	OutcomeUnreachable Outcome = "unreachable"
	// OutcomeOther covers every other failure, e.g. a socket that could not be opened.
	OutcomeOther Outcome = "other"
)

func (o Outcome) String() string {
	if o.IsValid() {
		return string(o)
	}
	return "unknown"
}

func (o Outcome) IsValid() bool {
	valid := []Outcome{OutcomeSuccess, OutcomeTTLExpired, OutcomeTimedOut, OutcomeUnreachable, OutcomeOther}
	return slices.Contains(valid, o)
}

// Responded reports whether a node on the path answered the probe.
func (o Outcome) Responded() bool {
	return o == OutcomeSuccess || o == OutcomeTTLExpired
}

// Status describes why a trace stopped.
type Status string

const (
	// StatusCompleted means the target was reached.
	StatusCompleted Status = "completed"
	// StatusExhausted means every TTL up to the maximum was probed without reaching the target.
	StatusExhausted Status = "exhausted"
	// StatusCanceled means the caller canceled the trace; the hops collected so far are kept.
	StatusCanceled Status = "canceled"
	// StatusAborted means the trace gave up after too many consecutive failed probes.
	StatusAborted Status = "aborted"
)

// HopFunc observes a hop right after it has been probed.
type HopFunc func(Hop)

// Options contains the configuration of a single trace.
type Options struct {
	// MaxTTL is the highest TTL that is probed.
	MaxTTL int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Timeout is the time to wait for an answer to a single probe.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// PayloadSize is the size of the echo request payload. Zero selects [DefaultPayloadSize].
	PayloadSize int `json:"payloadSize,omitempty" yaml:"payloadSize,omitempty" mapstructure:"payloadSize"`
	// MaxConsecutiveFailures stops the trace once this many probes in a row
	// got no answer from the path. Zero disables the limit.
	MaxConsecutiveFailures int `json:"maxConsecutiveFailures,omitempty" yaml:"maxConsecutiveFailures,omitempty" mapstructure:"maxConsecutiveFailures"`
	// ResolveNames enables reverse DNS lookups for every answering hop.
	ResolveNames bool `json:"resolveNames,omitempty" yaml:"resolveNames,omitempty" mapstructure:"resolveNames"`
	// OnHop is called synchronously after every probed hop.
	OnHop HopFunc `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MaxTTL:      DefaultMaxTTL,
		Timeout:     DefaultTimeout,
		PayloadSize: DefaultPayloadSize,
	}
}

// Validate checks the options and reports every problem found.
// The returned error wraps [ErrInvalidOptions].
func (o Options) Validate() error {
	var err error
	if o.MaxTTL < 1 || o.MaxTTL > maxTTLLimit {
		err = errors.Join(err, fmt.Errorf("maxHops must be between 1 and %d, got %d", maxTTLLimit, o.MaxTTL))
	}
	if o.Timeout <= 0 {
		err = errors.Join(err, fmt.Errorf("timeout must be greater than 0, got %s", o.Timeout))
	}
	if o.PayloadSize < 0 || o.PayloadSize > maxPayloadLimit {
		err = errors.Join(err, fmt.Errorf("payloadSize must be between 0 and %d, got %d", maxPayloadLimit, o.PayloadSize))
	}
	if o.MaxConsecutiveFailures < 0 {
		err = errors.Join(err, fmt.Errorf("maxConsecutiveFailures must not be negative, got %d", o.MaxConsecutiveFailures))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// optionsView is the serialized form of [Options].
type optionsView struct {
	MaxTTL                 int    `json:"maxHops" yaml:"maxHops"`
	Timeout                string `json:"timeout" yaml:"timeout"`
	TimeoutMs              int64  `json:"timeoutMs" yaml:"timeoutMs"`
	PayloadSize            int    `json:"payloadSize,omitempty" yaml:"payloadSize,omitempty"`
	MaxConsecutiveFailures int    `json:"maxConsecutiveFailures,omitempty" yaml:"maxConsecutiveFailures,omitempty"`
	ResolveNames           bool   `json:"resolveNames,omitempty" yaml:"resolveNames,omitempty"`
}

func (o Options) view() optionsView {
	return optionsView{
		MaxTTL:                 o.MaxTTL,
		Timeout:                o.Timeout.String(),
		TimeoutMs:              o.Timeout.Milliseconds(),
		PayloadSize:            o.PayloadSize,
		MaxConsecutiveFailures: o.MaxConsecutiveFailures,
		ResolveNames:           o.ResolveNames,
	}
}

func (o Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.view())
}

func (o *Options) UnmarshalJSON(b []byte) error {
	var v optionsView
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var timeout time.Duration
	if v.Timeout != "" {
		var err error
		if timeout, err = time.ParseDuration(v.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", v.Timeout, err)
		}
	}
	*o = Options{
		MaxTTL:                 v.MaxTTL,
		Timeout:                timeout,
		PayloadSize:            v.PayloadSize,
		MaxConsecutiveFailures: v.MaxConsecutiveFailures,
		ResolveNames:           v.ResolveNames,
	}
	return nil
}

// MarshalYAML is not used where the options are inlined, e.g. in check configs.
func (o Options) MarshalYAML() (any, error) {
	return o.view(), nil
}

func (o Options) payloadSize() int {
	if o.PayloadSize == 0 {
		return DefaultPayloadSize
	}
	return o.PayloadSize
}

// Hop is the record of one probe.
type Hop struct {
	// Latency is the round trip time of the probe. For timed out probes it is the timeout.
	Latency time.Duration `json:"-" yaml:"-"`
	// Addr is the address of the node that answered. It is empty if nothing answered.
	Addr HopAddress `json:"addr" yaml:"addr"`
	// Name is the reverse DNS name of Addr if name resolution is enabled.
	Name string `json:"name" yaml:"name"`
	// TTL is the TTL the probe was sent with.
	TTL int `json:"ttl" yaml:"ttl"`
	// Outcome is the classification of the answer.
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	// Error describes the failure of a probe with [OutcomeOther].
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// hopView is the serialized form of a [Hop].
type hopView struct {
	TTL     int        `json:"ttl" yaml:"ttl"`
	Addr    HopAddress `json:"addr" yaml:"addr"`
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Outcome Outcome    `json:"outcome" yaml:"outcome"`
	Latency string     `json:"latency" yaml:"latency"`
	RTTMs   int64      `json:"rttMs" yaml:"rttMs"`
	Error   string     `json:"error,omitempty" yaml:"error,omitempty"`
}

func (h Hop) view() hopView {
	return hopView{
		TTL:     h.TTL,
		Addr:    h.Addr,
		Name:    h.Name,
		Outcome: h.Outcome,
		Latency: h.Latency.String(),
		RTTMs:   h.Latency.Milliseconds(),
		Error:   h.Error,
	}
}

func (h Hop) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.view())
}

func (h *Hop) UnmarshalJSON(b []byte) error {
	var v hopView
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	latency, err := time.ParseDuration(v.Latency)
	if err != nil {
		return fmt.Errorf("invalid hop latency %q: %w", v.Latency, err)
	}
	*h = Hop{
		Latency: latency,
		Addr:    v.Addr,
		Name:    v.Name,
		TTL:     v.TTL,
		Outcome: v.Outcome,
		Error:   v.Error,
	}
	return nil
}

func (h Hop) MarshalYAML() (any, error) {
	return h.view(), nil
}

func (h Hop) String() string {
	name := h.Name
	if name == "" || len(name) > maxHopNameLength {
		name = h.Addr.String()
	}

	latency := h.Latency.Round(time.Microsecond).String()
	if h.Outcome == OutcomeTimedOut {
		latency = "*"
	}

	return fmt.Sprintf("%-3d %-45.45s  %-12s  %s", h.TTL, name, latency, h.Outcome)
}

// HopAddress is the address of the node that answered a probe.
type HopAddress struct {
	IP string `json:"ip" yaml:"ip"`
}

func newHopAddress(addr net.Addr) HopAddress {
	ip := ipFromAddr(addr)
	if ip == nil {
		return HopAddress{}
	}
	return HopAddress{IP: ip.String()}
}

func (a HopAddress) String() string {
	if a.IP == "" {
		return "*"
	}
	return a.IP
}

// Result is the outcome of tracing a single target.
type Result struct {
	// Target is the host name or address the trace was started for.
	Target string `json:"target" yaml:"target"`
	// Addr is the resolved address that was probed.
	Addr string `json:"addr" yaml:"addr"`
	// Options are the options the trace ran with.
	Options Options `json:"options" yaml:"options"`
	// Hops are the probed hops ordered by TTL, starting at 1 without gaps.
	Hops []Hop `json:"hops" yaml:"hops"`
	// Status tells why the trace stopped.
	Status Status `json:"status" yaml:"status"`
}

// Reached reports whether the last hop is the target.
func (r *Result) Reached() bool {
	if r == nil || len(r.Hops) == 0 {
		return false
	}
	return r.Hops[len(r.Hops)-1].Outcome == OutcomeSuccess
}

// Results maps each target to the result of its trace.
type Results map[string]*Result
