// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

// Package tui renders the targets dashboard in the terminal: collapsible
// pool sections with health rings, health-state filter toggles, pagination,
// and periodic refresh.
package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/scrape"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
)

// BoardProvider supplies dashboard pages and syncs view preferences.
// *board.Service implements it for in-process use; the CLI's gateway client
// implements it over HTTP.
type BoardProvider interface {
	BuildPage(ctx context.Context, req board.PageRequest) (*board.Page, error)
	SaveUIState(ctx context.Context, state uistate.State) error
}

// Options configure the terminal dashboard.
type Options struct {
	// PollInterval is the refresh cadence. Zero disables auto-refresh.
	PollInterval time.Duration
	// SessionID ties the dashboard to stored view preferences.
	SessionID string
	// Pool pre-selects a scrape pool.
	Pool string
}

type pageMsg struct {
	page *board.Page
}

type errMsg struct {
	err error
}

type tickMsg time.Time

// Model is the bubbletea model for the dashboard.
type Model struct {
	provider BoardProvider
	opts     Options

	req       board.PageRequest
	page      *board.Page
	err       error
	loading   bool
	collapsed map[string]bool
	cursor    int
	width     int
	height    int

	spinner spinner.Model
}

// NewModel creates the dashboard model.
func NewModel(provider BoardProvider, opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		provider: provider,
		opts:     opts,
		req: board.PageRequest{
			SessionID: opts.SessionID,
			Pool:      opts.Pool,
			Page:      1,
		},
		loading:   true,
		collapsed: make(map[string]bool),
		spinner:   sp,
	}
}

// Init starts the spinner and the first fetch.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.fetchCmd()}
	if m.opts.PollInterval > 0 {
		cmds = append(cmds, m.tickCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pageMsg:
		m.page = msg.page
		m.err = nil
		m.loading = false
		m.seedCollapsed()
		m.clampCursor()
		return m, nil

	case errMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		m.loading = true
		return m, m.fetchCmd()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.page != nil && m.cursor < len(m.page.Pools)-1 {
			m.cursor++
		}
		return m, nil

	case "enter", " ":
		pool := m.cursorPool()
		if pool == "" {
			return m, nil
		}
		m.collapsed[pool] = !m.collapsed[pool]
		if m.opts.SessionID == "" {
			return m, nil
		}
		// Sync the collapsed set so the gateway stops eliding rows for the
		// expanded pool, then refetch to pick them up.
		m.loading = true
		return m, tea.Sequence(m.saveStateCmd(), m.fetchCmd())

	case "u":
		return m.toggleFilter(scrape.HealthUp)
	case "d":
		return m.toggleFilter(scrape.HealthDown)
	case "n":
		return m.toggleFilter(scrape.HealthUnknown)

	case "a":
		// Clear the health filter.
		m.req.States = nil
		m.loading = true
		return m, m.fetchCmd()

	case "p":
		m.cyclePool()
		m.loading = true
		return m, m.fetchCmd()

	case "left", "h":
		if m.req.Page > 1 {
			m.req.Page--
			m.loading = true
			return m, m.fetchCmd()
		}
		return m, nil

	case "right", "l":
		m.req.Page++
		m.loading = true
		return m, m.fetchCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m *Model) View() string {
	return m.render()
}

func (m *Model) fetchCmd() tea.Cmd {
	req := m.req
	provider := m.provider
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		page, err := provider.BuildPage(ctx, req)
		if err != nil {
			return errMsg{err: err}
		}
		return pageMsg{page: page}
	}
}

// saveStateCmd writes the current view preferences back to the session.
// Preference sync is best-effort and never blocks the view.
func (m *Model) saveStateCmd() tea.Cmd {
	state := uistate.State{
		SessionID:      m.opts.SessionID,
		SelectedPool:   m.req.Pool,
		HealthFilters:  m.req.States,
		CollapsedPools: m.collapsedPools(),
	}
	provider := m.provider
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = provider.SaveUIState(ctx, state)
		return nil
	}
}

// seedCollapsed adopts the server's collapsed flag for pools the user has
// not toggled yet. Local toggles always win afterwards.
func (m *Model) seedCollapsed() {
	if m.page == nil {
		return
	}
	for _, pool := range m.page.Pools {
		if _, ok := m.collapsed[pool.Name]; !ok {
			m.collapsed[pool.Name] = pool.Collapsed
		}
	}
}

// collapsedPools returns the sorted names of locally collapsed pools.
func (m *Model) collapsedPools() []string {
	var out []string
	for name, collapsed := range m.collapsed {
		if collapsed {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// toggleFilter flips one health state in the filter set and refetches.
func (m *Model) toggleFilter(h scrape.TargetHealth) (tea.Model, tea.Cmd) {
	next := make([]string, 0, len(m.req.States)+1)
	found := false
	for _, s := range m.req.States {
		if s == string(h) {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, string(h))
	}
	m.req.States = next
	m.req.Page = 1
	m.loading = true
	return m, m.fetchCmd()
}

// cyclePool advances the pool selection: all pools, then each pool in
// order, then back to all.
func (m *Model) cyclePool() {
	if m.page == nil || len(m.page.PoolNames) == 0 {
		return
	}

	names := m.page.PoolNames
	if m.req.Pool == "" {
		m.req.Pool = names[0]
	} else {
		idx := -1
		for i, n := range names {
			if n == m.req.Pool {
				idx = i
				break
			}
		}
		if idx < 0 || idx == len(names)-1 {
			m.req.Pool = ""
		} else {
			m.req.Pool = names[idx+1]
		}
	}
	m.req.Page = 1
}

// cursorPool returns the pool name under the cursor.
func (m *Model) cursorPool() string {
	if m.page == nil || m.cursor < 0 || m.cursor >= len(m.page.Pools) {
		return ""
	}
	return m.page.Pools[m.cursor].Name
}

func (m *Model) clampCursor() {
	if m.page == nil || len(m.page.Pools) == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= len(m.page.Pools) {
		m.cursor = len(m.page.Pools) - 1
	}
}

// Run starts the dashboard and blocks until it exits.
func Run(ctx context.Context, provider BoardProvider, opts Options) error {
	p := tea.NewProgram(NewModel(provider, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
