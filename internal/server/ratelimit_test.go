// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/watchdeck-dev/watchdeck/internal/server"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     server.RateLimitConfig
		wantErr bool
	}{
		{name: "disabled", cfg: server.RateLimitConfig{}},
		{name: "valid", cfg: server.RateLimitConfig{RequestsPerSecond: 10, Burst: 5}},
		{name: "rate without burst", cfg: server.RateLimitConfig{RequestsPerSecond: 10}, wantErr: true},
		{name: "negative rate", cfg: server.RateLimitConfig{RequestsPerSecond: -1}, wantErr: true},
		{name: "negative max visitors", cfg: server.RateLimitConfig{MaxVisitors: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, deckerr.CodeServerConfigInvalid, deckerr.CodeOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRateLimitConfigValidateAppliesDefaultMaxVisitors(t *testing.T) {
	cfg := server.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10000, cfg.MaxVisitors)
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	srv := newTestServer(t, server.Config{
		RateLimit: server.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2},
	}, &fakeBoard{}, nil)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitIsPerIP(t *testing.T) {
	srv := newTestServer(t, server.Config{
		RateLimit: server.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1},
	}, &fakeBoard{}, nil)

	// Exhaust the first IP's bucket.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:9999" // same IP, different port
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabledByDefault(t *testing.T) {
	srv := newTestServer(t, server.Config{}, &fakeBoard{}, nil)

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
