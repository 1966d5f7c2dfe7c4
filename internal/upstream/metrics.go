// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments upstream API calls for watchdeck's own /metrics
// endpoint.
type Metrics struct {
	// RequestDuration observes upstream call latency per endpoint and outcome.
	RequestDuration *prometheus.HistogramVec

	// RequestsTotal counts upstream calls per endpoint.
	RequestsTotal *prometheus.CounterVec

	// BreakerState exposes the circuit breaker state (0=closed, 1=open).
	BreakerState prometheus.Gauge
}

// NewMetrics registers the upstream metrics on reg. A nil registerer gets a
// throwaway local registry so callers without telemetry still work.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "watchdeck_upstream_request_duration_seconds",
			Help:    "Histogram of upstream metrics API call latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "outcome"}),

		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "watchdeck_upstream_requests_total",
			Help: "Total number of upstream metrics API calls.",
		}, []string{"endpoint"}),

		BreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "watchdeck_upstream_breaker_open",
			Help: "Whether the upstream circuit breaker is open (1) or closed (0).",
		}),
	}
}
