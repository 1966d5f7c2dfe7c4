// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate per IP. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the maximum burst size per IP.
	Burst int
	// MaxVisitors caps how many unique IPs are tracked concurrently. When
	// the visitor map exceeds this size, the oldest entries are evicted
	// during cleanup. Zero applies the default of 10000.
	MaxVisitors int
}

// Validate checks that the RateLimitConfig is valid and applies defaults.
func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerSecond > 0 && c.Burst <= 0 {
		return deckerr.Errorf(deckerr.CodeServerConfigInvalid,
			"rate limit burst must be positive when rate is set (got burst=%d, rate=%g)",
			c.Burst, c.RequestsPerSecond)
	}
	if c.RequestsPerSecond < 0 {
		return deckerr.Errorf(deckerr.CodeServerConfigInvalid,
			"rate limit requests per second must not be negative (got %g)",
			c.RequestsPerSecond)
	}
	if c.MaxVisitors < 0 {
		return deckerr.Errorf(deckerr.CodeServerConfigInvalid,
			"rate limit max visitors must not be negative (got %d)",
			c.MaxVisitors)
	}
	if c.MaxVisitors == 0 {
		c.MaxVisitors = 10000
	}
	return nil
}

type visitorEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimitMiddleware returns middleware that enforces per-IP rate limits.
// Returns a pass-through middleware when cfg.RequestsPerSecond is zero.
// The done channel signals the cleanup goroutine to exit on shutdown.
func rateLimitMiddleware(cfg RateLimitConfig, done <-chan struct{}) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitorEntry)
	)

	// Periodically clean up stale entries to prevent unbounded growth.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				now := time.Now()
				const staleThreshold = 10 * time.Minute

				type entry struct {
					ip       string
					lastSeen time.Time
				}
				entries := make([]entry, 0, len(visitors))
				for ip, v := range visitors {
					if now.Sub(v.lastSeen) > staleThreshold {
						delete(visitors, ip)
					} else {
						entries = append(entries, entry{ip: ip, lastSeen: v.lastSeen})
					}
				}

				// Enforce MaxVisitors by evicting the oldest remaining entries.
				if cfg.MaxVisitors > 0 && len(entries) > cfg.MaxVisitors {
					slices.SortFunc(entries, func(a, b entry) int {
						return a.lastSeen.Compare(b.lastSeen)
					})
					toEvict := len(entries) - cfg.MaxVisitors
					for i := 0; i < toEvict; i++ {
						delete(visitors, entries[i].ip)
					}
					slog.Warn("rate limiter visitor map cap enforced",
						"evicted", toEvict, "max_visitors", cfg.MaxVisitors, "remaining", len(visitors))
				}
				mu.Unlock()
			case <-done:
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Strip the port so the limit applies per IP, not per connection.
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			mu.Lock()
			v, exists := visitors[host]
			if !exists {
				v = &visitorEntry{
					limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
				}
				visitors[host] = v
			}
			v.lastSeen = time.Now()
			allowed := v.limiter.Allow()
			mu.Unlock()

			if !allowed {
				slog.Warn("rate limit exceeded", "ip", host, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				if _, err := w.Write([]byte(`{"error":"rate limit exceeded"}`)); err != nil {
					slog.Warn("failed to write rate limit response", "error", err)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
