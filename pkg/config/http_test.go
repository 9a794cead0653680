// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/netdiag/internal/helper"
	"github.com/telekom/netdiag/pkg/checks/runtime"
)

const (
	remoteURL    = "https://config.example.com/netdiag.yaml"
	remoteConfig = `
traceroute:
  targets:
    - example.com
    - 1.1.1.1
  interval: 1s
  maxHops: 10
  timeout: 1s
`
)

func newTestHttpLoader(t *testing.T, cfg HttpLoaderConfig, interval time.Duration, cRuntime chan<- runtime.Config) *HttpLoader {
	t.Helper()
	hl := NewHttpLoader(&Config{Loader: LoaderConfig{Type: "http", Interval: interval, Http: cfg}}, cRuntime)
	httpmock.ActivateNonDefault(hl.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return hl
}

func TestHttpLoader_getRuntimeConfig(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		responder httpmock.Responder
		want      runtime.Config
		wantErr   bool
	}{
		{
			name:      "valid config",
			responder: httpmock.NewStringResponder(http.StatusOK, remoteConfig),
			want:      wantRuntimeConfig,
		},
		{
			name:  "bearer token is sent",
			token: "SECRET",
			responder: func(req *http.Request) (*http.Response, error) {
				if req.Header.Get("Authorization") != "Bearer SECRET" {
					return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
				}
				return httpmock.NewStringResponse(http.StatusOK, remoteConfig), nil
			},
			want: wantRuntimeConfig,
		},
		{
			name: "user agent is sent",
			responder: func(req *http.Request) (*http.Response, error) {
				if req.Header.Get("User-Agent") != "netdiag" {
					return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
				}
				return httpmock.NewStringResponse(http.StatusOK, remoteConfig), nil
			},
			want: wantRuntimeConfig,
		},
		{
			name:      "server error",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, "oops"),
			wantErr:   true,
		},
		{
			name:      "malformed config",
			responder: httpmock.NewStringResponder(http.StatusOK, "traceroute: [this is not a config"),
			wantErr:   true,
		},
		{
			name:      "connection error",
			responder: httpmock.NewErrorResponder(http.ErrHandlerTimeout),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hl := newTestHttpLoader(t, HttpLoaderConfig{Url: remoteURL, Token: tt.token, Timeout: time.Second}, 0, nil)
			httpmock.RegisterResponder(http.MethodGet, remoteURL, tt.responder)

			got, err := hl.getRuntimeConfig(t.Context())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected runtime config (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHttpLoader_Run(t *testing.T) {
	t.Run("retries until the config is served", func(t *testing.T) {
		result := make(chan runtime.Config, 1)
		hl := newTestHttpLoader(t, HttpLoaderConfig{
			Url:      remoteURL,
			Timeout:  time.Second,
			RetryCfg: helper.RetryConfig{Count: 2, Delay: time.Millisecond},
		}, 0, result)

		calls := 0
		httpmock.RegisterResponder(http.MethodGet, remoteURL, func(*http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, ""), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, remoteConfig), nil
		})

		require.NoError(t, hl.Run(t.Context()))
		assert.Equal(t, 3, httpmock.GetTotalCallCount())
		if diff := cmp.Diff(wantRuntimeConfig, <-result); diff != "" {
			t.Errorf("unexpected runtime config (-want +got):\n%s", diff)
		}
	})

	t.Run("gives up after the retries", func(t *testing.T) {
		hl := newTestHttpLoader(t, HttpLoaderConfig{
			Url:      remoteURL,
			Timeout:  time.Second,
			RetryCfg: helper.RetryConfig{Count: 1, Delay: time.Millisecond},
		}, 0, make(chan runtime.Config, 1))
		httpmock.RegisterResponder(http.MethodGet, remoteURL, httpmock.NewStringResponder(http.StatusNotFound, ""))

		assert.Error(t, hl.Run(t.Context()))
		assert.Equal(t, 2, httpmock.GetTotalCallCount())
	})

	t.Run("reloads until shut down", func(t *testing.T) {
		result := make(chan runtime.Config, 1)
		hl := newTestHttpLoader(t, HttpLoaderConfig{Url: remoteURL, Timeout: time.Second}, 10*time.Millisecond, result)
		httpmock.RegisterResponder(http.MethodGet, remoteURL, httpmock.NewStringResponder(http.StatusOK, remoteConfig))

		errCh := make(chan error, 1)
		go func() {
			errCh <- hl.Run(t.Context())
		}()

		<-result
		<-result
		hl.Shutdown(t.Context())

		timeout := time.After(5 * time.Second)
		for {
			select {
			case err := <-errCh:
				assert.NoError(t, err)
				return
			case <-result:
			case <-timeout:
				t.Fatal("loader did not stop")
			}
		}
	})
}

func TestNewLoader(t *testing.T) {
	cRuntime := make(chan runtime.Config)
	assert.IsType(t, &HttpLoader{}, NewLoader(&Config{Loader: LoaderConfig{Type: "http"}}, cRuntime))
	assert.IsType(t, &FileLoader{}, NewLoader(&Config{Loader: LoaderConfig{Type: "file"}}, cRuntime))
	assert.IsType(t, &FileLoader{}, NewLoader(&Config{}, cRuntime))
}
