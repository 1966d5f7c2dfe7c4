// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"context"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
	"github.com/watchdeck-dev/watchdeck/pkg/health"
)

// BoardService assembles dashboard pages for REST handlers.
// *board.Service implements it; tests substitute fakes.
type BoardService interface {
	BuildPage(ctx context.Context, req board.PageRequest) (*board.Page, error)
	Pools(ctx context.Context) ([]board.PoolSummary, error)
	UpstreamHealth() health.Metrics
}

// Services holds dependencies injected into route handlers.
// Use NewServices so required services are always provided.
type Services struct {
	board  BoardService
	states uistate.Store
}

// NewServices creates a Services instance. The uistate store may be nil,
// in which case the UI-state endpoints report unavailable.
func NewServices(b BoardService, states uistate.Store) (*Services, error) {
	if b == nil {
		return nil, deckerr.New(deckerr.CodeServerConfigInvalid, "board service is required")
	}
	return &Services{board: b, states: states}, nil
}

// Board returns the board service.
func (s *Services) Board() BoardService {
	return s.board
}

// States returns the UI-state store, or nil when state persistence is off.
func (s *Services) States() uistate.Store {
	return s.states
}
