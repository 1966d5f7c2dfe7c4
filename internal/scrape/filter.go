// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package scrape

// HealthFilter is a set of selected health states. The zero value (empty
// set) selects all states.
type HealthFilter map[TargetHealth]bool

// NewHealthFilter builds a filter from health strings, normalizing each one.
func NewHealthFilter(states ...string) HealthFilter {
	if len(states) == 0 {
		return nil
	}
	f := make(HealthFilter, len(states))
	for _, s := range states {
		f[ParseHealth(s)] = true
	}
	return f
}

// Matches reports whether the filter admits the given health state.
func (f HealthFilter) Matches(h TargetHealth) bool {
	if len(f) == 0 {
		return true
	}
	return f[h]
}

// States returns the selected states in display order.
func (f HealthFilter) States() []TargetHealth {
	var out []TargetHealth
	for _, h := range AllHealthStates {
		if f[h] {
			out = append(out, h)
		}
	}
	return out
}

// FilterTargets returns the targets admitted by the filter, preserving order.
// A nil or empty filter returns the input unchanged.
func FilterTargets(targets []Target, f HealthFilter) []Target {
	if len(f) == 0 {
		return targets
	}
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if f.Matches(t.Health) {
			out = append(out, t)
		}
	}
	return out
}
