// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/scrape"
)

func (m *Model) render() string {
	var b strings.Builder

	title := "watchdeck"
	if m.req.Pool != "" {
		title += " · " + m.req.Pool
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorBannerStyle.Render("upstream error: " + m.err.Error()))
		b.WriteString("\n")
	}

	if m.loading && m.page == nil {
		b.WriteString(m.spinner.View() + " loading targets...\n")
		b.WriteString("\n" + helpStyle.Render(helpLine()))
		return b.String()
	}

	if m.page == nil {
		return b.String()
	}

	if m.page.Limited {
		b.WriteString(noticeStyle.Render(fmt.Sprintf(
			"showing only pool %s: %d pools is too many to render at once, cycle with p",
			m.page.SelectedPool, len(m.page.PoolNames))))
		b.WriteString("\n")
	}

	if len(m.page.Pools) == 0 {
		b.WriteString(noticeStyle.Render("no scrape pools found upstream"))
		b.WriteString("\n")
	}

	for i, pool := range m.page.Pools {
		b.WriteString(m.renderPool(pool, i == m.cursor))
	}

	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpLine()))
	return b.String()
}

func (m *Model) renderPool(pool board.PoolSection, selected bool) string {
	var b strings.Builder

	marker := "▸"
	collapsed := m.collapsed[pool.Name]
	if !collapsed {
		marker = "▾"
	}

	header := fmt.Sprintf("%s %s  %s", marker, pool.Name, renderCounts(pool.Counts))
	if selected {
		b.WriteString(selectedPoolStyle.Render(header))
	} else {
		b.WriteString(poolHeaderStyle.Render(header))
	}
	b.WriteString("\n")

	if collapsed {
		return b.String()
	}

	for _, row := range pool.Rows {
		b.WriteString(renderRow(row))
	}

	if pool.Page.TotalPages > 1 {
		b.WriteString(noticeStyle.Render(fmt.Sprintf(
			"  page %d/%d (%d targets)", pool.Page.Page, pool.Page.TotalPages, pool.Page.TotalRows)))
		b.WriteString("\n")
	}

	return b.String()
}

func renderRow(row board.Row) string {
	var b strings.Builder

	t := row.Target
	b.WriteString(fmt.Sprintf("  %s %-8s %s  %s  %s\n",
		healthDot(t.Health),
		healthStyle(t.Health).Render(string(t.Health)),
		t.Instance(),
		formatAgo(t.LastScrape),
		formatDuration(t.LastScrapeDuration)))

	if row.Error != "" {
		b.WriteString(errorRowStyle.Render(row.Error))
		b.WriteString("\n")
	}

	return b.String()
}

// renderCounts renders the per-pool health ring, e.g. "3 up · 1 down".
func renderCounts(c scrape.HealthCounts) string {
	parts := make([]string, 0, 3)
	if c.Up > 0 {
		parts = append(parts, upStyle.Render(fmt.Sprintf("%d up", c.Up)))
	}
	if c.Down > 0 {
		parts = append(parts, downStyle.Render(fmt.Sprintf("%d down", c.Down)))
	}
	if c.Unknown > 0 {
		parts = append(parts, unknownStyle.Render(fmt.Sprintf("%d unknown", c.Unknown)))
	}
	if len(parts) == 0 {
		return noticeStyle.Render("empty")
	}
	return strings.Join(parts, " · ")
}

func (m *Model) statusLine() string {
	parts := []string{}

	if len(m.req.States) > 0 {
		parts = append(parts, "filter: "+strings.Join(m.req.States, ","))
	} else {
		parts = append(parts, "filter: all")
	}

	if m.page != nil {
		parts = append(parts, fmt.Sprintf("pools: %d", len(m.page.PoolNames)))
		if !m.page.Upstream.Available {
			parts = append(parts, downStyle.Render("upstream unavailable"))
		}
		parts = append(parts, "updated "+formatAgo(m.page.GeneratedAt))
	}

	if m.loading {
		parts = append(parts, m.spinner.View())
	}

	return strings.Join(parts, "  ")
}

func helpLine() string {
	return "j/k move · enter collapse · u/d/n filter · a all · p pool · h/l page · r refresh · q quit"
}

// formatAgo renders a timestamp as a coarse relative age.
func formatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	d := time.Since(t)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
