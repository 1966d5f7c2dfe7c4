// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package scrape

import (
	"strings"
	"time"

	"github.com/prometheus/common/model"
)

// TargetHealth is the health state of a scrape target as reported by the
// upstream metrics API.
type TargetHealth string

const (
	HealthUp      TargetHealth = "up"
	HealthDown    TargetHealth = "down"
	HealthUnknown TargetHealth = "unknown"
)

// AllHealthStates lists the known health states in display order.
var AllHealthStates = []TargetHealth{HealthUp, HealthDown, HealthUnknown}

// ParseHealth normalizes a health string from the wire. Unrecognized values
// map to HealthUnknown so a misbehaving upstream never drops targets.
func ParseHealth(s string) TargetHealth {
	switch TargetHealth(strings.ToLower(s)) {
	case HealthUp:
		return HealthUp
	case HealthDown:
		return HealthDown
	default:
		return HealthUnknown
	}
}

// Valid reports whether h is one of the known health states.
func (h TargetHealth) Valid() bool {
	switch h {
	case HealthUp, HealthDown, HealthUnknown:
		return true
	}
	return false
}

// Target is a single endpoint polled for metrics.
type Target struct {
	// Pool is the scrape pool the target belongs to.
	Pool string `json:"pool"`
	// ScrapeURL is the address the scraper actually polls.
	ScrapeURL string `json:"scrape_url"`
	// GlobalURL is the externally reachable form of ScrapeURL.
	GlobalURL string `json:"global_url"`
	// Health is the normalized health state.
	Health TargetHealth `json:"health"`
	// Labels is the target's label set after relabeling.
	Labels model.LabelSet `json:"labels"`
	// DiscoveredLabels is the raw label set before relabeling.
	DiscoveredLabels model.LabelSet `json:"discovered_labels,omitempty"`
	// LastScrape is the time of the most recent scrape attempt.
	LastScrape time.Time `json:"last_scrape"`
	// LastScrapeDuration is how long that scrape took.
	LastScrapeDuration time.Duration `json:"last_scrape_duration"`
	// LastError is the most recent scrape error, empty when the last
	// scrape succeeded.
	LastError string `json:"last_error,omitempty"`
}

// HasError reports whether the target's most recent scrape failed with an
// error message worth rendering.
func (t *Target) HasError() bool {
	return t.LastError != ""
}

// Job returns the target's job label, falling back to the pool name.
func (t *Target) Job() string {
	if v, ok := t.Labels[model.JobLabel]; ok {
		return string(v)
	}
	return t.Pool
}

// Instance returns the target's instance label, falling back to the scrape URL.
func (t *Target) Instance() string {
	if v, ok := t.Labels[model.InstanceLabel]; ok {
		return string(v)
	}
	return t.ScrapeURL
}
