// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/watchdeck-dev/watchdeck/internal/board"
)

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List scrape pools with health counts",
		RunE:  runPools,
	}

	cmd.Flags().String("address", defaultDeckAddr, "watchdeck address")
	cmd.Flags().String("token", "", "bearer token for an authenticated watchdeck")

	return cmd
}

func runPools(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	token, _ := cmd.Flags().GetString("token")

	dc := newDeckClient(addr, token)
	var body struct {
		Pools []board.PoolSummary `json:"pools"`
	}
	if err := dc.getJSON(cmd.Context(), "/api/v1/pools", &body); err != nil {
		return err
	}

	if len(body.Pools) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No scrape pools found upstream.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "POOL\tUP\tDOWN\tUNKNOWN\tTOTAL")
	for _, p := range body.Pools {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			p.Name, p.Counts.Up, p.Counts.Down, p.Counts.Unknown, p.Counts.Total())
	}
	return w.Flush()
}
