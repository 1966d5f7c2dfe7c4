// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeInHome runs the root command with HOME pinned, so repeated calls in
// one test see the same config directory.
func executeInHome(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", home)
	viper.Reset()
	t.Cleanup(viper.Reset)

	buf := new(bytes.Buffer)
	root := NewRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestInitWritesDefaultConfig(t *testing.T) {
	home := t.TempDir()

	out, err := executeInHome(t, home, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default config")

	data, err := os.ReadFile(filepath.Join(home, ".config", "watchdeck", "watchdeck.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "upstream:")
}

func TestInitKeepsExistingConfig(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ".config", "watchdeck", "watchdeck.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  url: http://prom.mine:9090\n"), 0o600))

	out, err := executeInHome(t, home, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prom.mine")
}

func TestInitForceOverwrites(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ".config", "watchdeck", "watchdeck.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  url: http://prom.mine:9090\n"), 0o600))

	out, err := executeInHome(t, home, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default config")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "prom.mine")
}

func TestInitExplicitConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")

	out, err := executeInHome(t, t.TempDir(), "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
