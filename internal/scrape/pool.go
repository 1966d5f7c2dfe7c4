// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package scrape

import "sort"

// HealthCounts summarizes the member health of a pool. Counts are computed
// from the full, unfiltered member set; health filtering and pagination
// never alter them.
type HealthCounts struct {
	Up      int `json:"up"`
	Down    int `json:"down"`
	Unknown int `json:"unknown"`
}

// Total returns the total member count.
func (c HealthCounts) Total() int {
	return c.Up + c.Down + c.Unknown
}

// Add increments the counter for the given health state.
func (c *HealthCounts) Add(h TargetHealth) {
	switch h {
	case HealthUp:
		c.Up++
	case HealthDown:
		c.Down++
	default:
		c.Unknown++
	}
}

// Pool is a named group of scrape targets. Pools are derived from a target
// list on every request and never persisted.
type Pool struct {
	Name    string       `json:"name"`
	Targets []Target     `json:"targets"`
	Counts  HealthCounts `json:"counts"`
}

// GroupByPool groups targets into pools sorted by pool name. Target order
// within a pool follows the order of the input slice, which preserves the
// upstream response order.
func GroupByPool(targets []Target) []Pool {
	byName := make(map[string]*Pool)
	for _, t := range targets {
		p, ok := byName[t.Pool]
		if !ok {
			p = &Pool{Name: t.Pool}
			byName[t.Pool] = p
		}
		p.Targets = append(p.Targets, t)
		p.Counts.Add(t.Health)
	}

	pools := make([]Pool, 0, len(byName))
	for _, p := range byName {
		pools = append(pools, *p)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Name < pools[j].Name })
	return pools
}

// PoolNames returns the sorted names of the given pools.
func PoolNames(pools []Pool) []string {
	names := make([]string, len(pools))
	for i, p := range pools {
		names[i] = p.Name
	}
	return names
}
