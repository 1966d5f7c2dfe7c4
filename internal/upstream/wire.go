// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package upstream

import (
	"time"

	"github.com/watchdeck-dev/watchdeck/internal/scrape"

	"github.com/prometheus/common/model"
)

// apiResponse is the Prometheus-style envelope every upstream endpoint uses.
type apiResponse[T any] struct {
	Status    string `json:"status"`
	Data      T      `json:"data"`
	ErrorType string `json:"errorType,omitempty"`
	Error     string `json:"error,omitempty"`
}

const statusSuccess = "success"

// scrapePoolsData is the payload of /api/v1/scrape_pools.
type scrapePoolsData struct {
	ScrapePools []string `json:"scrapePools"`
}

// targetsData is the payload of /api/v1/targets.
type targetsData struct {
	ActiveTargets []wireTarget `json:"activeTargets"`
}

// wireTarget mirrors one entry of activeTargets on the wire.
type wireTarget struct {
	ScrapePool         string         `json:"scrapePool"`
	ScrapeURL          string         `json:"scrapeUrl"`
	GlobalURL          string         `json:"globalUrl"`
	Health             string         `json:"health"`
	Labels             model.LabelSet `json:"labels"`
	DiscoveredLabels   model.LabelSet `json:"discoveredLabels"`
	LastScrape         time.Time      `json:"lastScrape"`
	LastScrapeDuration float64        `json:"lastScrapeDuration"` // seconds
	LastError          string         `json:"lastError"`
}

// toTarget converts a wire target into the domain representation.
func (w wireTarget) toTarget() scrape.Target {
	return scrape.Target{
		Pool:               w.ScrapePool,
		ScrapeURL:          w.ScrapeURL,
		GlobalURL:          w.GlobalURL,
		Health:             scrape.ParseHealth(w.Health),
		Labels:             w.Labels,
		DiscoveredLabels:   w.DiscoveredLabels,
		LastScrape:         w.LastScrape,
		LastScrapeDuration: time.Duration(w.LastScrapeDuration * float64(time.Second)),
		LastError:          w.LastError,
	}
}
