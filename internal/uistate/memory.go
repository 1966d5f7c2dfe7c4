// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package uistate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. State is lost on restart, which
// matches the default "no persistence" posture.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
	nowFunc  func() time.Time // for testing
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]State),
		nowFunc:  time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy slices so callers cannot mutate stored state.
	out := s
	out.HealthFilters = append([]string(nil), s.HealthFilters...)
	out.CollapsedPools = append([]string(nil), s.CollapsedPools...)
	return &out, nil
}

func (m *MemoryStore) Put(_ context.Context, state *State) error {
	if err := state.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *state
	stored.UpdatedAt = m.nowFunc()
	stored.HealthFilters = append([]string(nil), state.HealthFilters...)
	stored.CollapsedPools = append([]string(nil), state.CollapsedPools...)
	m.sessions[state.SessionID] = stored
	state.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
