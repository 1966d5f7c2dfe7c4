// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

// Package uistate keeps per-session dashboard view preferences: the selected
// scrape pool, the health-state filter set, and which pools are collapsed.
// It mirrors what the original browser dashboard kept in local storage and
// never holds scraped metrics data.
package uistate

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations, checked with errors.Is.
var (
	// ErrNotFound indicates no state is stored for the session.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the state or session ID is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabase indicates an unexpected backend failure.
	ErrDatabase = errors.New("database error")
)

// State is one session's view preferences. Writes replace the whole value.
type State struct {
	// SessionID identifies the dashboard session the state belongs to.
	SessionID string `json:"session_id"`
	// SelectedPool is the pool the session last chose; empty means none.
	SelectedPool string `json:"selected_pool,omitempty"`
	// HealthFilters is the set of selected health states; empty means all.
	HealthFilters []string `json:"health_filters,omitempty"`
	// CollapsedPools lists pools whose sections render collapsed.
	CollapsedPools []string `json:"collapsed_pools,omitempty"`
	// UpdatedAt is stamped by the store on every Put.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the state for storability.
func (s *State) Validate() error {
	if s == nil {
		return ErrInvalidInput
	}
	if s.SessionID == "" {
		return ErrInvalidInput
	}
	return nil
}

// Collapsed reports whether the given pool is in the collapsed set.
func (s *State) Collapsed(pool string) bool {
	for _, p := range s.CollapsedPools {
		if p == pool {
			return true
		}
	}
	return false
}

// ToggleCollapsed adds or removes a pool from the collapsed set.
func (s *State) ToggleCollapsed(pool string) {
	for i, p := range s.CollapsedPools {
		if p == pool {
			s.CollapsedPools = append(s.CollapsedPools[:i], s.CollapsedPools[i+1:]...)
			return
		}
	}
	s.CollapsedPools = append(s.CollapsedPools, pool)
}

// Store persists session view preferences.
type Store interface {
	// Get returns the state for a session, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*State, error)
	// Put replaces the session's state and stamps UpdatedAt.
	Put(ctx context.Context, state *State) error
	// Delete removes a session's state. Deleting an absent session is not
	// an error.
	Delete(ctx context.Context, sessionID string) error
	// Close releases backend resources.
	Close() error
}
