// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/server"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
	"github.com/watchdeck-dev/watchdeck/pkg/health"

	"github.com/stretchr/testify/require"
)

// fakeBoard implements server.BoardService from canned values.
type fakeBoard struct {
	page     *board.Page
	pools    []board.PoolSummary
	err      error
	requests []board.PageRequest
}

func (f *fakeBoard) BuildPage(_ context.Context, req board.PageRequest) (*board.Page, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &board.Page{GeneratedAt: time.Now()}, nil
}

func (f *fakeBoard) Pools(context.Context) ([]board.PoolSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pools, nil
}

func (f *fakeBoard) UpstreamHealth() health.Metrics {
	return health.Metrics{Available: true}
}

func newTestServer(t *testing.T, cfg server.Config, b server.BoardService, states uistate.Store) *server.Server {
	t.Helper()

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}

	srv, err := server.New(cfg)
	require.NoError(t, err)

	svc, err := server.NewServices(b, states)
	require.NoError(t, err)
	srv.RegisterServices(svc)

	return srv
}
