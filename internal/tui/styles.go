// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/watchdeck-dev/watchdeck/internal/scrape"
)

var (
	colorUp      = lipgloss.Color("42")
	colorDown    = lipgloss.Color("196")
	colorUnknown = lipgloss.Color("245")
	colorAccent  = lipgloss.Color("63")
	colorMuted   = lipgloss.Color("241")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 1)

	poolHeaderStyle = lipgloss.NewStyle().
			Bold(true)

	selectedPoolStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent)

	upStyle      = lipgloss.NewStyle().Foreground(colorUp)
	downStyle    = lipgloss.NewStyle().Foreground(colorDown)
	unknownStyle = lipgloss.NewStyle().Foreground(colorUnknown)

	errorRowStyle = lipgloss.NewStyle().
			Foreground(colorDown).
			PaddingLeft(4)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(colorDown).
				Bold(true).
				Padding(0, 1)
)

// healthStyle returns the style for a target health state.
func healthStyle(h scrape.TargetHealth) lipgloss.Style {
	switch h {
	case scrape.HealthUp:
		return upStyle
	case scrape.HealthDown:
		return downStyle
	default:
		return unknownStyle
	}
}

// healthDot renders a colored marker for a target health state.
func healthDot(h scrape.TargetHealth) string {
	return healthStyle(h).Render("●")
}
