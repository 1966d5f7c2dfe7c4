// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

// Package board assembles the targets dashboard page: it fetches scrape
// pools and active targets from the upstream API, groups targets by pool
// with health counts, applies health-state filtering and pagination, and
// merges per-session view preferences.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/watchdeck-dev/watchdeck/internal/scrape"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
	"github.com/watchdeck-dev/watchdeck/internal/upstream"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
	"github.com/watchdeck-dev/watchdeck/pkg/health"
)

// TargetSource is the upstream surface the board needs. *upstream.Client
// satisfies it; tests substitute fakes.
type TargetSource interface {
	ScrapePools(ctx context.Context) ([]string, error)
	ActiveTargets(ctx context.Context, q upstream.TargetsQuery) ([]scrape.Target, error)
	Health() health.Metrics
}

// Options tune page assembly.
type Options struct {
	// PerPage is the default page size when a request does not set one.
	PerPage int
	// PoolLimit is the pool count above which an unselected request
	// defaults to the first pool and the page is flagged Limited.
	PoolLimit int
}

// DefaultPoolLimit matches the dashboard's "too many pools to show them
// all" threshold.
const DefaultPoolLimit = 20

func (o *Options) withDefaults() Options {
	out := *o
	if out.PerPage <= 0 {
		out.PerPage = scrape.DefaultPerPage
	}
	if out.PoolLimit <= 0 {
		out.PoolLimit = DefaultPoolLimit
	}
	return out
}

// Service builds dashboard pages.
type Service struct {
	source  TargetSource
	states  uistate.Store
	opts    Options
	nowFunc func() time.Time // for testing
}

// NewService creates a board service. The uistate store may be nil, in
// which case session preferences are ignored.
func NewService(source TargetSource, states uistate.Store, opts Options) (*Service, error) {
	if source == nil {
		return nil, deckerr.New(deckerr.CodeServerConfigInvalid, "target source is required")
	}
	return &Service{
		source:  source,
		states:  states,
		opts:    opts.withDefaults(),
		nowFunc: time.Now,
	}, nil
}

// PageRequest selects what the page shows. Zero values mean "use the
// session's stored preference, then the default".
type PageRequest struct {
	// SessionID ties the request to stored view preferences. Empty means
	// stateless.
	SessionID string
	// Pool selects a single scrape pool. Empty means all pools (subject
	// to the pool-limit rule).
	Pool string
	// States filters rows by health state. Empty means all states.
	States []string
	// Page and PerPage control table pagination within each pool.
	Page    int
	PerPage int
}

// Row is one rendered target line.
type Row struct {
	Target scrape.Target `json:"target"`
	// Error mirrors Target.LastError so clients can render the error row
	// beneath the endpoint row without digging into the target.
	Error string `json:"error,omitempty"`
}

// PoolSection is one collapsible pool on the page.
type PoolSection struct {
	Name string `json:"name"`
	// Counts is the health ring: always computed from the unfiltered
	// member set, independent of filtering and pagination.
	Counts    scrape.HealthCounts `json:"counts"`
	Collapsed bool                `json:"collapsed"`
	// Rows is the current page of (filtered) targets. Empty when the
	// section is collapsed.
	Rows []Row           `json:"rows"`
	Page scrape.PageInfo `json:"page"`
}

// Page is the assembled dashboard view.
type Page struct {
	// PoolNames lists all pools available upstream, for the selector.
	PoolNames []string `json:"pool_names"`
	// SelectedPool is the pool the page is narrowed to; empty means all.
	SelectedPool string `json:"selected_pool,omitempty"`
	// Limited is set when the pool-limit rule picked SelectedPool
	// because too many pools exist to show them all.
	Limited bool `json:"limited"`
	// Filters echoes the active health-state filter.
	Filters []string `json:"filters,omitempty"`
	// Pools holds the rendered sections.
	Pools []PoolSection `json:"pools"`
	// GeneratedAt stamps assembly time.
	GeneratedAt time.Time `json:"generated_at"`
	// Upstream is the upstream health snapshot at assembly time.
	Upstream health.Metrics `json:"upstream"`
}

// BuildPage assembles the dashboard page for one request.
func (s *Service) BuildPage(ctx context.Context, req PageRequest) (*Page, error) {
	state := s.loadState(ctx, req.SessionID)
	poolFromSession := req.Pool == "" && state != nil && state.SelectedPool != ""
	s.seedFromState(&req, state)

	poolNames, err := s.source.ScrapePools(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(poolNames)

	page := &Page{
		PoolNames:    poolNames,
		SelectedPool: req.Pool,
		Filters:      normalizeStates(req.States),
		GeneratedAt:  s.nowFunc(),
	}

	if page.SelectedPool != "" && !containsString(poolNames, page.SelectedPool) {
		if !poolFromSession {
			return nil, deckerr.New(deckerr.CodeBoardPoolNotFound, "unknown scrape pool",
				deckerr.FieldPool(page.SelectedPool))
		}
		// A stored selection for a pool that no longer exists upstream is
		// stale, like a collapsed pool that went away: drop it and render
		// fresh rather than erroring on every load.
		page.SelectedPool = ""
		req.Pool = ""
	}

	// Pool-limit rule: with no pool selected and more pools than we can
	// reasonably render, default to the first pool and say so.
	if page.SelectedPool == "" && len(poolNames) > s.opts.PoolLimit {
		page.SelectedPool = poolNames[0]
		page.Limited = true
	}

	targets, err := s.source.ActiveTargets(ctx, upstream.TargetsQuery{Pool: page.SelectedPool})
	if err != nil {
		return nil, err
	}

	filter := scrape.NewHealthFilter(page.Filters...)
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = s.opts.PerPage
	}

	for _, pool := range scrape.GroupByPool(targets) {
		section := PoolSection{
			Name:   pool.Name,
			Counts: pool.Counts,
		}
		if state != nil && state.Collapsed(pool.Name) {
			// Collapsed sections keep their health ring but elide rows.
			section.Collapsed = true
			_, section.Page = scrape.Paginate(scrape.FilterTargets(pool.Targets, filter), req.Page, perPage)
			page.Pools = append(page.Pools, section)
			continue
		}

		rows, info := scrape.Paginate(scrape.FilterTargets(pool.Targets, filter), req.Page, perPage)
		section.Page = info
		section.Rows = make([]Row, 0, len(rows))
		for _, t := range rows {
			section.Rows = append(section.Rows, Row{Target: t, Error: t.LastError})
		}
		page.Pools = append(page.Pools, section)
	}

	page.Upstream = s.source.Health()

	s.persistState(ctx, req, state)
	return page, nil
}

// PoolSummary is one pool with its health ring, for the pool list endpoint.
type PoolSummary struct {
	Name   string              `json:"name"`
	Counts scrape.HealthCounts `json:"counts"`
}

// Pools returns every upstream pool with health counts. Pools configured
// upstream but currently without active targets appear with zero counts.
func (s *Service) Pools(ctx context.Context) ([]PoolSummary, error) {
	names, err := s.source.ScrapePools(ctx)
	if err != nil {
		return nil, err
	}

	targets, err := s.source.ActiveTargets(ctx, upstream.TargetsQuery{})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]scrape.HealthCounts, len(names))
	for _, pool := range scrape.GroupByPool(targets) {
		counts[pool.Name] = pool.Counts
	}

	sort.Strings(names)
	out := make([]PoolSummary, 0, len(names))
	for _, name := range names {
		out = append(out, PoolSummary{Name: name, Counts: counts[name]})
	}
	return out, nil
}

// SaveUIState replaces a session's stored view preferences. Clients use it
// to sync collapse toggles without rebuilding the page. A nil store or an
// empty session makes it a no-op.
func (s *Service) SaveUIState(ctx context.Context, state uistate.State) error {
	if s.states == nil || state.SessionID == "" {
		return nil
	}
	return s.states.Put(ctx, &state)
}

// UpstreamHealth exposes the upstream health snapshot for status endpoints.
func (s *Service) UpstreamHealth() health.Metrics {
	return s.source.Health()
}

// loadState fetches session preferences, treating an unknown session as
// fresh state.
func (s *Service) loadState(ctx context.Context, sessionID string) *uistate.State {
	if s.states == nil || sessionID == "" {
		return nil
	}
	state, err := s.states.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, uistate.ErrNotFound) {
			slog.Debug("loading ui state failed, rendering fresh", "session", sessionID, "error", err)
		}
		// Unknown sessions render fresh state, not an error.
		return nil
	}
	return state
}

// seedFromState fills unset request fields from stored preferences.
// Explicit request values always win, matching URL-parameter precedence.
func (s *Service) seedFromState(req *PageRequest, state *uistate.State) {
	if state == nil {
		return
	}
	if req.Pool == "" {
		req.Pool = state.SelectedPool
	}
	if len(req.States) == 0 {
		req.States = state.HealthFilters
	}
}

// persistState writes the request's explicit selections back to the
// session so the next load restores them.
func (s *Service) persistState(ctx context.Context, req PageRequest, prev *uistate.State) {
	if s.states == nil || req.SessionID == "" {
		return
	}

	next := uistate.State{SessionID: req.SessionID}
	if prev != nil {
		next = *prev
	}
	next.SelectedPool = req.Pool
	next.HealthFilters = normalizeStates(req.States)

	// Best-effort: preference persistence must never fail the page.
	_ = s.states.Put(ctx, &next)
}

func normalizeStates(states []string) []string {
	if len(states) == 0 {
		return nil
	}
	seen := make(map[scrape.TargetHealth]bool, len(states))
	var out []string
	for _, raw := range states {
		h := scrape.ParseHealth(raw)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, string(h))
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
