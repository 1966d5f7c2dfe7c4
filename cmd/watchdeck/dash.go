// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/watchdeck-dev/watchdeck/internal/tui"
)

func newDashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the terminal dashboard",
		Long:  "Render the targets dashboard in the terminal, refreshed from a running watchdeck.",
		RunE:  runDash,
	}

	cmd.Flags().String("address", defaultDeckAddr, "watchdeck address")
	cmd.Flags().String("token", "", "bearer token for an authenticated watchdeck")
	cmd.Flags().String("pool", "", "pre-select a scrape pool")
	cmd.Flags().String("session", "", "session ID for stored view preferences (random when empty)")
	cmd.Flags().Duration("refresh", 10*time.Second, "refresh interval (0 disables auto-refresh)")

	return cmd
}

func runDash(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	token, _ := cmd.Flags().GetString("token")
	pool, _ := cmd.Flags().GetString("pool")
	session, _ := cmd.Flags().GetString("session")
	refresh, _ := cmd.Flags().GetDuration("refresh")

	if session == "" {
		session = "dash-" + uuid.NewString()
	}

	dc := newDeckClient(addr, token)
	return tui.Run(cmd.Context(), dc, tui.Options{
		PollInterval: refresh,
		SessionID:    session,
		Pool:         pool,
	})
}
