// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watchdeck-dev/watchdeck/internal/config"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Long:  "Writes the commented default configuration to ~/.config/watchdeck/watchdeck.yaml, or to the path given with --config.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		cmd.Printf("Config already exists at %s (use --force to overwrite)\n", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return deckerr.Wrap(err, deckerr.CodeCLISetupFailure, "creating config directory")
	}
	if err := os.WriteFile(path, config.DefaultConfigYAML, 0o600); err != nil {
		return deckerr.Wrap(err, deckerr.CodeCLISetupFailure, "writing config")
	}

	cmd.Printf("Wrote default config to %s\n", path)
	return nil
}
