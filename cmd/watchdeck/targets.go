// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/watchdeck-dev/watchdeck/internal/board"
)

func newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List scrape targets grouped by pool",
		Long:  "Fetch the dashboard page and print its target rows, optionally narrowed to one pool or a set of health states.",
		RunE:  runTargets,
	}

	cmd.Flags().String("address", defaultDeckAddr, "watchdeck address")
	cmd.Flags().String("token", "", "bearer token for an authenticated watchdeck")
	cmd.Flags().String("pool", "", "show only this scrape pool")
	cmd.Flags().StringSlice("state", nil, "health states to show (up, down, unknown)")
	cmd.Flags().Int("page", 1, "page number within each pool")
	cmd.Flags().Int("per-page", 0, "rows per page (0 uses the server default)")

	return cmd
}

func runTargets(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	token, _ := cmd.Flags().GetString("token")
	pool, _ := cmd.Flags().GetString("pool")
	states, _ := cmd.Flags().GetStringSlice("state")
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")

	dc := newDeckClient(addr, token)
	result, err := dc.BuildPage(cmd.Context(), board.PageRequest{
		Pool:    pool,
		States:  states,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if result.Limited {
		_, _ = fmt.Fprintf(out, "Showing only pool %s (%d pools upstream; pass --pool to pick another)\n\n",
			result.SelectedPool, len(result.PoolNames))
	}

	if len(result.Pools) == 0 {
		_, _ = fmt.Fprintln(out, "No targets found.")
		return nil
	}

	for _, section := range result.Pools {
		_, _ = fmt.Fprintf(out, "%s (%d up, %d down, %d unknown)\n",
			section.Name, section.Counts.Up, section.Counts.Down, section.Counts.Unknown)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, row := range section.Rows {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n",
				row.Target.Health, row.Target.Instance(), row.Target.ScrapeURL)
			if row.Error != "" {
				_, _ = fmt.Fprintf(w, "  \terror:\t%s\n", row.Error)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if section.Page.TotalPages > 1 {
			_, _ = fmt.Fprintf(out, "  page %d/%d (%d targets)\n",
				section.Page.Page, section.Page.TotalPages, section.Page.TotalRows)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}
