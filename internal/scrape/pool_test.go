// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package scrape_test

import (
	"testing"

	"github.com/watchdeck-dev/watchdeck/internal/scrape"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTarget(pool, url string, health scrape.TargetHealth) scrape.Target {
	return scrape.Target{
		Pool:      pool,
		ScrapeURL: url,
		GlobalURL: url,
		Health:    health,
		Labels:    model.LabelSet{model.JobLabel: model.LabelValue(pool)},
	}
}

func TestGroupByPoolSortsPoolsByName(t *testing.T) {
	targets := []scrape.Target{
		mkTarget("node", "http://n1:9100/metrics", scrape.HealthUp),
		mkTarget("blackbox", "http://b1:9115/probe", scrape.HealthDown),
		mkTarget("node", "http://n2:9100/metrics", scrape.HealthUp),
		mkTarget("kubelet", "http://k1:10250/metrics", scrape.HealthUnknown),
	}

	pools := scrape.GroupByPool(targets)

	require.Len(t, pools, 3)
	assert.Equal(t, []string{"blackbox", "kubelet", "node"}, scrape.PoolNames(pools))
}

func TestGroupByPoolPreservesMemberOrder(t *testing.T) {
	targets := []scrape.Target{
		mkTarget("node", "http://n3:9100/metrics", scrape.HealthDown),
		mkTarget("node", "http://n1:9100/metrics", scrape.HealthUp),
		mkTarget("node", "http://n2:9100/metrics", scrape.HealthUp),
	}

	pools := scrape.GroupByPool(targets)

	require.Len(t, pools, 1)
	urls := make([]string, 0, 3)
	for _, tgt := range pools[0].Targets {
		urls = append(urls, tgt.ScrapeURL)
	}
	assert.Equal(t, []string{"http://n3:9100/metrics", "http://n1:9100/metrics", "http://n2:9100/metrics"}, urls)
}

func TestGroupByPoolComputesCounts(t *testing.T) {
	targets := []scrape.Target{
		mkTarget("node", "http://n1:9100/metrics", scrape.HealthUp),
		mkTarget("node", "http://n2:9100/metrics", scrape.HealthUp),
		mkTarget("node", "http://n3:9100/metrics", scrape.HealthDown),
		mkTarget("node", "http://n4:9100/metrics", scrape.HealthUnknown),
	}

	pools := scrape.GroupByPool(targets)

	require.Len(t, pools, 1)
	assert.Equal(t, scrape.HealthCounts{Up: 2, Down: 1, Unknown: 1}, pools[0].Counts)
	assert.Equal(t, 4, pools[0].Counts.Total())
}

func TestGroupByPoolEmptyInput(t *testing.T) {
	pools := scrape.GroupByPool(nil)
	assert.Empty(t, pools)
}

func TestGroupByPoolEmptyPoolNameSortsFirst(t *testing.T) {
	targets := []scrape.Target{
		mkTarget("node", "http://n1:9100/metrics", scrape.HealthUp),
		mkTarget("", "http://orphan:8080/metrics", scrape.HealthUp),
	}

	pools := scrape.GroupByPool(targets)

	require.Len(t, pools, 2)
	assert.Equal(t, "", pools[0].Name)
	assert.Equal(t, "node", pools[1].Name)
}

func TestParseHealthNormalizesUnknownStrings(t *testing.T) {
	tests := []struct {
		in   string
		want scrape.TargetHealth
	}{
		{"up", scrape.HealthUp},
		{"UP", scrape.HealthUp},
		{"down", scrape.HealthDown},
		{"unknown", scrape.HealthUnknown},
		{"", scrape.HealthUnknown},
		{"flapping", scrape.HealthUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, scrape.ParseHealth(tt.in))
		})
	}
}

func TestTargetJobAndInstanceFallbacks(t *testing.T) {
	withLabels := scrape.Target{
		Pool:      "node",
		ScrapeURL: "http://n1:9100/metrics",
		Labels: model.LabelSet{
			model.JobLabel:      "node-exporter",
			model.InstanceLabel: "n1:9100",
		},
	}
	assert.Equal(t, "node-exporter", withLabels.Job())
	assert.Equal(t, "n1:9100", withLabels.Instance())

	bare := scrape.Target{Pool: "node", ScrapeURL: "http://n1:9100/metrics"}
	assert.Equal(t, "node", bare.Job())
	assert.Equal(t, "http://n1:9100/metrics", bare.Instance())
}
