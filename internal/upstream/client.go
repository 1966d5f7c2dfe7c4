// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

// Package upstream talks to the Prometheus-compatible metrics API that
// watchdeck renders. It owns the wire format, call reliability (retries,
// circuit breaker, outbound rate limiting) and upstream health tracking.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/watchdeck-dev/watchdeck/internal/scrape"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"

	"github.com/avast/retry-go/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	poolsPath   = "/api/v1/scrape_pools"
	targetsPath = "/api/v1/targets"
)

// Config holds upstream client configuration.
type Config struct {
	// BaseURL is the root of the metrics API, e.g. http://prometheus:9090.
	BaseURL string
	// Timeout bounds a single upstream call. Zero means 10s.
	Timeout time.Duration
	// RetryAttempts is the number of tries per call. Zero means 3.
	RetryAttempts uint
	// BreakerFailures is the consecutive-failure count that opens the
	// circuit breaker. Zero means 5.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open. Zero means 30s.
	BreakerTimeout time.Duration
	// HealthCooldown is the health tracker cooldown. Zero means
	// DefaultHealthCooldown.
	HealthCooldown time.Duration
	// PollRate limits outbound calls per second. Zero disables limiting.
	PollRate float64
	// PollBurst is the limiter burst. Zero with a PollRate set means 5.
	PollBurst int
}

// Client fetches scrape pools and active targets from the upstream API.
type Client struct {
	base    string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	health  *HealthTracker
	metrics *Metrics
	retries uint
}

// NewClient creates an upstream client. The registerer may be nil when
// self-telemetry is not wanted (tests, one-shot CLI calls).
func NewClient(cfg Config, reg prometheus.Registerer) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, deckerr.New(deckerr.CodeConfigValidateInvalidValue, "upstream base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, deckerr.Errorf(deckerr.CodeConfigValidateInvalidValue, "parsing upstream base url: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.HealthCooldown == 0 {
		cfg.HealthCooldown = DefaultHealthCooldown
	}

	tracker, err := NewHealthTracker(cfg.HealthCooldown)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics(reg)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "watchdeck-upstream",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			slog.Warn("upstream breaker state change", "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				metrics.BreakerState.Set(1)
			} else {
				metrics.BreakerState.Set(0)
			}
		},
	})

	var limiter *rate.Limiter
	if cfg.PollRate > 0 {
		burst := cfg.PollBurst
		if burst <= 0 {
			burst = 5
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.PollRate), burst)
	}

	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		limiter: limiter,
		health:  tracker,
		metrics: metrics,
		retries: cfg.RetryAttempts,
	}, nil
}

// Health returns a snapshot of the upstream health tracker.
func (c *Client) Health() HealthMetrics {
	return c.health.HealthMetrics()
}

// Available reports whether the upstream is currently considered reachable.
func (c *Client) Available() bool {
	return c.health.IsHealthy()
}

// ScrapePools fetches the list of configured scrape pool names.
func (c *Client) ScrapePools(ctx context.Context) ([]string, error) {
	var data scrapePoolsData
	if err := c.getJSON(ctx, poolsPath, nil, &data); err != nil {
		return nil, deckerr.Wrap(err, deckerr.CodeUpstreamPoolsFetchFailure, "fetching scrape pools")
	}
	return data.ScrapePools, nil
}

// TargetsQuery narrows an ActiveTargets call.
type TargetsQuery struct {
	// Pool restricts the result to a single scrape pool. Empty means all.
	Pool string
}

// ActiveTargets fetches the active targets, optionally narrowed to one pool.
func (c *Client) ActiveTargets(ctx context.Context, q TargetsQuery) ([]scrape.Target, error) {
	params := url.Values{"state": []string{"active"}}
	if q.Pool != "" {
		params.Set("scrapePool", q.Pool)
	}

	var data targetsData
	if err := c.getJSON(ctx, targetsPath, params, &data); err != nil {
		return nil, deckerr.Wrap(err, deckerr.CodeUpstreamTargetsFetchFailure, "fetching active targets",
			deckerr.FieldPool(q.Pool))
	}

	targets := make([]scrape.Target, 0, len(data.ActiveTargets))
	for _, wt := range data.ActiveTargets {
		targets = append(targets, wt.toTarget())
	}
	return targets, nil
}

// getJSON performs a reliability-wrapped GET against the upstream API and
// decodes the success envelope into data.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, data any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return deckerr.Wrap(err, deckerr.CodeUpstreamRequestInvalid, "waiting for poll rate limiter")
		}
	}

	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(c.retries),
		)
		return nil, r.Do(func() error {
			return c.doOnce(ctx, path, params, data)
		})
	})

	outcome := "success"
	if err != nil {
		outcome = "failure"
		c.health.RecordFailure()
	} else {
		c.health.RecordSuccess()
	}
	c.metrics.RequestsTotal.WithLabelValues(path).Inc()
	c.metrics.RequestDuration.WithLabelValues(path, outcome).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return deckerr.Wrap(err, deckerr.CodeUpstreamBreakerOpen, "upstream breaker open")
	}
	return err
}

// doOnce performs a single HTTP GET without retries.
func (c *Client) doOnce(ctx context.Context, path string, params url.Values, data any) error {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return deckerr.Errorf(deckerr.CodeUpstreamRequestInvalid, "building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	return decodeEnvelope(path, raw, data)
}

// decodeEnvelope unwraps the Prometheus-style response envelope.
func decodeEnvelope(path string, raw []byte, data any) error {
	var envelope apiResponse[json.RawMessage]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return deckerr.Errorf(deckerr.CodeUpstreamResponseInvalid, "decoding %s response: %w", path, err)
	}
	if envelope.Status != statusSuccess {
		return deckerr.Errorf(deckerr.CodeUpstreamStatusNotSuccess,
			"upstream %s status %q: %s %s", path, envelope.Status, envelope.ErrorType, envelope.Error)
	}
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return deckerr.Errorf(deckerr.CodeUpstreamResponseInvalid, "decoding %s data: %w", path, err)
	}
	return nil
}
