// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome   Outcome
		valid     bool
		responded bool
		str       string
	}{
		{OutcomeSuccess, true, true, "success"},
		{OutcomeTTLExpired, true, true, "ttl_expired"},
		{OutcomeTimedOut, true, false, "timed_out"},
		{OutcomeUnreachable, true, false, "unreachable"},
		{OutcomeOther, true, false, "other"},
		{Outcome("bogus"), false, false, "unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.outcome.IsValid())
			assert.Equal(t, tt.responded, tt.outcome.Responded())
			assert.Equal(t, tt.str, tt.outcome.String())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 30, opts.MaxTTL)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 32, opts.PayloadSize)
	assert.Zero(t, opts.MaxConsecutiveFailures)
	assert.False(t, opts.ResolveNames)
	assert.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: DefaultOptions()},
		{name: "single hop", opts: Options{MaxTTL: 1, Timeout: time.Millisecond}},
		{name: "max ttl limit", opts: Options{MaxTTL: 255, Timeout: time.Second}},
		{name: "zero max ttl", opts: Options{MaxTTL: 0, Timeout: time.Second}, wantErr: true},
		{name: "max ttl too large", opts: Options{MaxTTL: 256, Timeout: time.Second}, wantErr: true},
		{name: "zero timeout", opts: Options{MaxTTL: 30}, wantErr: true},
		{name: "negative timeout", opts: Options{MaxTTL: 30, Timeout: -time.Second}, wantErr: true},
		{name: "negative payload", opts: Options{MaxTTL: 30, Timeout: time.Second, PayloadSize: -1}, wantErr: true},
		{name: "payload too large", opts: Options{MaxTTL: 30, Timeout: time.Second, PayloadSize: 70000}, wantErr: true},
		{name: "negative failure limit", opts: Options{MaxTTL: 30, Timeout: time.Second, MaxConsecutiveFailures: -2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOptions)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		err := Options{MaxTTL: -1, Timeout: 0}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maxHops")
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestOptions_payloadSize(t *testing.T) {
	assert.Equal(t, DefaultPayloadSize, Options{}.payloadSize())
	assert.Equal(t, 64, Options{PayloadSize: 64}.payloadSize())
}

func TestHopAddress_String(t *testing.T) {
	tests := []struct {
		name string
		addr HopAddress
		want string
	}{
		{name: "IPv4", addr: HopAddress{IP: "100.1.1.7"}, want: "100.1.1.7"},
		{name: "IPv6", addr: HopAddress{IP: "2001:db8::1"}, want: "2001:db8::1"},
		{name: "no answer", addr: HopAddress{}, want: "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.addr.String(); got != tt.want {
				t.Errorf("HopAddress.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_newHopAddress(t *testing.T) {
	tests := []struct {
		name string
		addr net.Addr
		want HopAddress
	}{
		{name: "Works with IP", addr: &net.IPAddr{IP: net.ParseIP("100.1.1.7")}, want: HopAddress{IP: "100.1.1.7"}},
		{name: "Works with UDP", addr: &net.UDPAddr{IP: net.ParseIP("100.1.1.7"), Port: 53}, want: HopAddress{IP: "100.1.1.7"}},
		{name: "Works with IPv6", addr: &net.IPAddr{IP: net.ParseIP("2001:db8::1")}, want: HopAddress{IP: "2001:db8::1"}},
		{name: "nil address", addr: nil, want: HopAddress{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newHopAddress(tt.addr))
		})
	}
}

func TestHop_String(t *testing.T) {
	tests := []struct {
		name string
		hop  Hop
		want string
	}{
		{
			name: "answered with name",
			hop:  Hop{TTL: 1, Addr: HopAddress{IP: "192.0.2.1"}, Name: "gw.example.net", Latency: 1234 * time.Microsecond, Outcome: OutcomeTTLExpired},
			want: "1   gw.example.net                                 1.234ms       ttl_expired",
		},
		{
			name: "answered without name",
			hop:  Hop{TTL: 12, Addr: HopAddress{IP: "192.0.2.1"}, Latency: 20 * time.Millisecond, Outcome: OutcomeSuccess},
			want: "12  192.0.2.1                                      20ms          success",
		},
		{
			name: "timed out",
			hop:  Hop{TTL: 3, Latency: 5 * time.Second, Outcome: OutcomeTimedOut},
			want: "3   *                                              *             timed_out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hop.String())
		})
	}
}

func TestOptions_JSON(t *testing.T) {
	opts := Options{MaxTTL: 12, Timeout: 1500 * time.Millisecond, PayloadSize: 64, ResolveNames: true}

	b, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"maxHops": 12,
		"timeout": "1.5s",
		"timeoutMs": 1500,
		"payloadSize": 64,
		"resolveNames": true
	}`, string(b))

	var got Options
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, opts, got)

	t.Run("invalid timeout", func(t *testing.T) {
		var o Options
		assert.Error(t, json.Unmarshal([]byte(`{"maxHops":1,"timeout":"later"}`), &o))
	})
}

func TestResult_YAML_options(t *testing.T) {
	b, err := yaml.Marshal(Result{Target: "example.com", Options: DefaultOptions()})
	require.NoError(t, err)

	out := string(b)
	assert.Contains(t, out, "timeout: 5s")
	assert.Contains(t, out, "timeoutMs: 5000")
	assert.Contains(t, out, "maxHops: 30")
}

func TestHop_JSON(t *testing.T) {
	hop := Hop{
		TTL:     4,
		Addr:    HopAddress{IP: "192.0.2.4"},
		Name:    "core.example.net.",
		Latency: 1500 * time.Microsecond,
		Outcome: OutcomeTTLExpired,
	}

	b, err := json.Marshal(hop)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ttl": 4,
		"addr": {"ip": "192.0.2.4"},
		"name": "core.example.net.",
		"outcome": "ttl_expired",
		"latency": "1.5ms",
		"rttMs": 1
	}`, string(b))

	var got Hop
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, hop, got)

	t.Run("invalid latency", func(t *testing.T) {
		var h Hop
		assert.Error(t, json.Unmarshal([]byte(`{"ttl":1,"latency":"soon"}`), &h))
	})
}

func TestHop_YAML(t *testing.T) {
	hop := Hop{TTL: 2, Latency: 5 * time.Second, Outcome: OutcomeTimedOut}
	b, err := yaml.Marshal(hop)
	require.NoError(t, err)

	out := string(b)
	assert.Contains(t, out, "ttl: 2")
	assert.Contains(t, out, "outcome: timed_out")
	assert.Contains(t, out, "latency: 5s")
	assert.Contains(t, out, "rttMs: 5000")
}

func TestResult_Reached(t *testing.T) {
	tests := []struct {
		name string
		res  *Result
		want bool
	}{
		{name: "nil", res: nil, want: false},
		{name: "no hops", res: &Result{}, want: false},
		{name: "last hop success", res: &Result{Hops: []Hop{{TTL: 1, Outcome: OutcomeTTLExpired}, {TTL: 2, Outcome: OutcomeSuccess}}}, want: true},
		{name: "last hop timed out", res: &Result{Hops: []Hop{{TTL: 1, Outcome: OutcomeTimedOut}}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Reached())
		})
	}
}
