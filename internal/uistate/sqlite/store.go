// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

// Package sqlite provides a file-backed uistate backend so dashboard
// sessions keep their view preferences across watchdeck restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/watchdeck-dev/watchdeck/internal/uistate"
)

// Compile-time interface check.
var _ uistate.Store = (*Store)(nil)

func init() {
	uistate.RegisterBackend("sqlite", func(cfg *uistate.StorageConfig) (uistate.Store, error) {
		path := "watchdeck-ui.db"
		if cfg != nil && cfg.Path != "" {
			path = cfg.Path
		}
		return New(path)
	})
}

// Store implements uistate.Store backed by a single SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath and initialises the
// ui_state table.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening uistate db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging uistate db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating uistate db: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ui_state (
	session_id      TEXT PRIMARY KEY,
	selected_pool   TEXT NOT NULL DEFAULT '',
	health_filters  TEXT NOT NULL DEFAULT '[]',
	collapsed_pools TEXT NOT NULL DEFAULT '[]',
	updated_at      TEXT NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

func (s *Store) Get(ctx context.Context, sessionID string) (*uistate.State, error) {
	if sessionID == "" {
		return nil, uistate.ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT selected_pool, health_filters, collapsed_pools, updated_at FROM ui_state WHERE session_id = ?`,
		sessionID)

	var (
		selectedPool   string
		filtersJSON    string
		collapsedJSON  string
		updatedAtRFC   string
	)
	if err := row.Scan(&selectedPool, &filtersJSON, &collapsedJSON, &updatedAtRFC); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, uistate.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning ui state: %v", uistate.ErrDatabase, err)
	}

	state := &uistate.State{
		SessionID:    sessionID,
		SelectedPool: selectedPool,
	}
	if err := json.Unmarshal([]byte(filtersJSON), &state.HealthFilters); err != nil {
		return nil, fmt.Errorf("%w: decoding health filters: %v", uistate.ErrDatabase, err)
	}
	if err := json.Unmarshal([]byte(collapsedJSON), &state.CollapsedPools); err != nil {
		return nil, fmt.Errorf("%w: decoding collapsed pools: %v", uistate.ErrDatabase, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtRFC)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing updated_at: %v", uistate.ErrDatabase, err)
	}
	state.UpdatedAt = updatedAt
	return state, nil
}

func (s *Store) Put(ctx context.Context, state *uistate.State) error {
	if err := state.Validate(); err != nil {
		return err
	}

	filtersJSON, err := json.Marshal(emptyAsList(state.HealthFilters))
	if err != nil {
		return fmt.Errorf("%w: encoding health filters: %v", uistate.ErrDatabase, err)
	}
	collapsedJSON, err := json.Marshal(emptyAsList(state.CollapsedPools))
	if err != nil {
		return fmt.Errorf("%w: encoding collapsed pools: %v", uistate.ErrDatabase, err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO ui_state (session_id, selected_pool, health_filters, collapsed_pools, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	selected_pool   = excluded.selected_pool,
	health_filters  = excluded.health_filters,
	collapsed_pools = excluded.collapsed_pools,
	updated_at      = excluded.updated_at
`, state.SessionID, state.SelectedPool, string(filtersJSON), string(collapsedJSON), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: upserting ui state: %v", uistate.ErrDatabase, err)
	}

	state.UpdatedAt = now
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return uistate.ErrInvalidInput
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM ui_state WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("%w: deleting ui state: %v", uistate.ErrDatabase, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// emptyAsList keeps stored JSON as [] instead of null for nil slices.
func emptyAsList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
