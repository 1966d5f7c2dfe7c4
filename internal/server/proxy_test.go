// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrustedProxies(t *testing.T) {
	nets, err := parseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.0/24 ", ""})
	require.NoError(t, err)
	assert.Len(t, nets, 2)
}

func TestParseTrustedProxiesInvalidCIDR(t *testing.T) {
	_, err := parseTrustedProxies([]string{"not-a-cidr"})
	require.Error(t, err)
	assert.Equal(t, deckerr.CodeServerConfigInvalid, deckerr.CodeOf(err))
}

func TestParseTrustedProxiesEmpty(t *testing.T) {
	_, err := parseTrustedProxies([]string{"", "  "})
	require.Error(t, err)
}

func remoteAddrSeenBy(t *testing.T, mw func(http.Handler) http.Handler, remoteAddr string, headers map[string]string) string {
	t.Helper()
	var seen string
	handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return seen
}

func TestTrustedProxyRewritesFromXFF(t *testing.T) {
	trusted, err := parseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	mw := trustedProxyRealIP(trusted)

	seen := remoteAddrSeenBy(t, mw, "10.1.2.3:5555", map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.1.2.3",
	})
	assert.Equal(t, "203.0.113.7:0", seen)
}

func TestUntrustedProxyHeaderIgnored(t *testing.T) {
	trusted, err := parseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	mw := trustedProxyRealIP(trusted)

	seen := remoteAddrSeenBy(t, mw, "198.51.100.9:5555", map[string]string{
		"X-Forwarded-For": "203.0.113.7",
	})
	assert.Equal(t, "198.51.100.9:5555", seen)
}

func TestTrustedProxyFallsBackToXRealIP(t *testing.T) {
	trusted, err := parseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	mw := trustedProxyRealIP(trusted)

	seen := remoteAddrSeenBy(t, mw, "10.1.2.3:5555", map[string]string{
		"X-Real-IP": "203.0.113.8",
	})
	assert.Equal(t, "203.0.113.8:0", seen)
}

func TestTrustedProxyInvalidXFFKeepsConnectingIP(t *testing.T) {
	trusted, err := parseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	mw := trustedProxyRealIP(trusted)

	seen := remoteAddrSeenBy(t, mw, "10.1.2.3:5555", map[string]string{
		"X-Forwarded-For": "garbage-value",
	})
	assert.Equal(t, "10.1.2.3:5555", seen)
}
