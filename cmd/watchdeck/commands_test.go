// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/watchdeck-dev/watchdeck/internal/uistate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns its combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Isolate config discovery and bootstrap from the developer's machine.
	t.Setenv("HOME", t.TempDir())
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

// fakeDeck serves canned JSON for deck endpoints and returns its host:port.
func fakeDeck(t *testing.T, handler http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

// closedAddr returns a loopback address that refuses connections.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "watchdeck dev")
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "start", "status", "pools", "targets", "dash", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestStatusCommandShowsUpstreamHealth(t *testing.T) {
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","upstream":{"failure_count":0,"available":true}}`))
	}))

	out, err := executeCommand(t, "status", "--address", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "Upstream: available")
}

func TestStatusCommandUnavailableUpstream(t *testing.T) {
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","upstream":{"failure_count":4,"available":false}}`))
	}))

	out, err := executeCommand(t, "status", "--address", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "unavailable (4 consecutive failures)")
}

func TestStatusCommandNotRunning(t *testing.T) {
	out, err := executeCommand(t, "status", "--address", closedAddr(t))
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
}

func TestStatusCommandSendsBearerToken(t *testing.T) {
	var gotAuth string
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","upstream":{"available":true}}`))
	}))

	_, err := executeCommand(t, "status", "--address", addr, "--token", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestPoolsCommandPrintsTable(t *testing.T) {
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/pools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pools":[
			{"name":"blackbox","counts":{"up":1,"down":0,"unknown":0}},
			{"name":"node","counts":{"up":2,"down":1,"unknown":0}}
		]}`))
	}))

	out, err := executeCommand(t, "pools", "--address", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "POOL")
	assert.Contains(t, out, "blackbox")
	assert.Contains(t, out, "node")
	assert.Contains(t, out, "3") // node total
}

func TestPoolsCommandEmpty(t *testing.T) {
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pools":[]}`))
	}))

	out, err := executeCommand(t, "pools", "--address", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "No scrape pools")
}

func TestTargetsCommandPrintsRowsAndErrors(t *testing.T) {
	var gotQuery string
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/board", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"pool_names":["node"],
			"pools":[{
				"name":"node",
				"counts":{"up":1,"down":1,"unknown":0},
				"rows":[
					{"target":{"pool":"node","scrape_url":"http://n1:9100/metrics","health":"up"}},
					{"target":{"pool":"node","scrape_url":"http://n2:9100/metrics","health":"down","last_error":"connection refused"},"error":"connection refused"}
				],
				"page":{"page":1,"per_page":20,"total_rows":2,"total_pages":1}
			}]
		}`))
	}))

	out, err := executeCommand(t, "targets", "--address", addr, "--pool", "node", "--state", "up", "--state", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "node (1 up, 1 down, 0 unknown)")
	assert.Contains(t, out, "http://n1:9100/metrics")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, gotQuery, "pool=node")
	assert.Contains(t, gotQuery, "state=up")
	assert.Contains(t, gotQuery, "state=down")
}

func TestTargetsCommandLimitedNotice(t *testing.T) {
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"pool_names":["a","b"],
			"selected_pool":"a",
			"limited":true,
			"pools":[{"name":"a","counts":{"up":1,"down":0,"unknown":0},"rows":[],"page":{"page":1,"per_page":20,"total_rows":0,"total_pages":1}}]
		}`))
	}))

	out, err := executeCommand(t, "targets", "--address", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "Showing only pool a")
}

func TestDeckClientSavesUIState(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth string
		gotBody                     []byte
	)
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"tui-1"}`))
	}))

	dc := newDeckClient(addr, "secret")
	err := dc.SaveUIState(context.Background(), uistate.State{
		SessionID:      "tui-1",
		SelectedPool:   "node",
		CollapsedPools: []string{"blackbox"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/v1/ui/tui-1", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.JSONEq(t, `{"selected_pool":"node","collapsed_pools":["blackbox"]}`, string(gotBody))
}

func TestTargetsCommandErrorStatus(t *testing.T) {
	addr := fakeDeck(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"unknown scrape pool"}`, http.StatusNotFound)
	}))

	_, err := executeCommand(t, "targets", "--address", addr, "--pool", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
