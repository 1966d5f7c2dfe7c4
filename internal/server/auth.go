// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// publicPaths are reachable without a bearer token so probes and scrapers
// keep working when auth is enabled.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// bearerAuthMiddleware enforces Authorization: Bearer <token> against the
// configured token set. An empty token list disables authentication.
func bearerAuthMiddleware(tokens []string) func(http.Handler) http.Handler {
	if len(tokens) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			presented, ok := bearerToken(r)
			if !ok || !tokenAllowed(presented, tokens) {
				slog.Debug("rejecting unauthenticated request",
					"method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}

// tokenAllowed compares the presented token against every configured token
// in constant time so timing does not leak which byte mismatched.
func tokenAllowed(presented string, tokens []string) bool {
	allowed := false
	for _, t := range tokens {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(t)) == 1 {
			allowed = true
		}
	}
	return allowed
}
