// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
	"github.com/watchdeck-dev/watchdeck/pkg/health"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watchdeck and upstream status",
		Long:  "Check the running watchdeck's status endpoint and display gateway and upstream health.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", defaultDeckAddr, "watchdeck address to check")
	cmd.Flags().String("token", "", "bearer token for an authenticated watchdeck")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	token, _ := cmd.Flags().GetString("token")
	out := cmd.OutOrStdout()

	dc := newDeckClient(addr, token)
	var body struct {
		Status   string         `json:"status"`
		Upstream health.Metrics `json:"upstream"`
	}
	if err := dc.getJSON(cmd.Context(), "/api/v1/status", &body); err != nil {
		if deckerr.HasCode(err, deckerr.CodeCLIDeckNotRunning) {
			_, _ = fmt.Fprintf(out, "Watchdeck at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Watchdeck at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Watchdeck at %s: %s\n", addr, body.Status)
	if body.Upstream.Available {
		_, _ = fmt.Fprintln(out, "Upstream: available")
	} else {
		_, _ = fmt.Fprintf(out, "Upstream: unavailable (%d consecutive failures)\n", body.Upstream.FailureCount)
	}
	return nil
}
