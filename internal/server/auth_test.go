// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/watchdeck-dev/watchdeck/internal/server"

	"github.com/stretchr/testify/assert"
)

func TestAuthRejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, server.Config{AuthTokens: []string{"secret"}}, &fakeBoard{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuthRejectsWrongToken(t *testing.T) {
	srv := newTestServer(t, server.Config{AuthTokens: []string{"secret"}}, &fakeBoard{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsConfiguredToken(t *testing.T) {
	srv := newTestServer(t, server.Config{AuthTokens: []string{"first", "second"}}, &fakeBoard{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer second")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthSkipsHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, server.Config{AuthTokens: []string{"secret"}}, &fakeBoard{}, nil)

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "path %s should not require auth", path)
	}
}

func TestAuthDisabledWithoutTokens(t *testing.T) {
	srv := newTestServer(t, server.Config{}, &fakeBoard{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
