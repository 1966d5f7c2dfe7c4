// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/tui"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

// defaultDeckAddr is where deck commands look for a running watchdeck.
const defaultDeckAddr = "127.0.0.1:9464"

// defaultHTTPClient is the package-level HTTP client used by deck commands.
// Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}

// deckClient provides HTTP access to a running watchdeck instance.
type deckClient struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ tui.BoardProvider = (*deckClient)(nil)

// newDeckClient creates a client targeting the given host:port address.
// A non-empty token is sent as a bearer credential on every request.
func newDeckClient(addr, token string) *deckClient {
	return &deckClient{
		baseURL: "http://" + addr,
		token:   token,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
// Returns a cli.deck.not_running error on connection refused.
func (c *deckClient) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return deckerr.Wrap(err, deckerr.CodeCLIRequestFailure, "building request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return deckerr.New(deckerr.CodeCLIDeckNotRunning, "watchdeck is not running (connection refused)")
		}
		return deckerr.Wrap(err, deckerr.CodeCLIRequestFailure, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return deckerr.Errorf(deckerr.CodeCLIRequestFailure,
			"watchdeck returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return deckerr.Wrap(err, deckerr.CodeCLIResponseInvalid, "invalid response")
	}
	return nil
}

// BuildPage fetches a board page over HTTP, satisfying tui.BoardProvider.
func (c *deckClient) BuildPage(ctx context.Context, req board.PageRequest) (*board.Page, error) {
	q := url.Values{}
	if req.SessionID != "" {
		q.Set("session", req.SessionID)
	}
	if req.Pool != "" {
		q.Set("pool", req.Pool)
	}
	for _, s := range req.States {
		q.Add("state", s)
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(req.PerPage))
	}

	path := "/api/v1/board"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page board.Page
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveUIState replaces the session's stored view preferences, so collapse
// toggles made in the terminal dashboard survive into the next page build.
func (c *deckClient) SaveUIState(ctx context.Context, state uistate.State) error {
	if state.SessionID == "" {
		return nil
	}

	payload := struct {
		SelectedPool   string   `json:"selected_pool,omitempty"`
		HealthFilters  []string `json:"health_filters,omitempty"`
		CollapsedPools []string `json:"collapsed_pools,omitempty"`
	}{state.SelectedPool, state.HealthFilters, state.CollapsedPools}

	body, err := json.Marshal(payload)
	if err != nil {
		return deckerr.Wrap(err, deckerr.CodeCLIRequestFailure, "encoding ui state")
	}

	path := c.baseURL + "/api/v1/ui/" + url.PathEscape(state.SessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return deckerr.Wrap(err, deckerr.CodeCLIRequestFailure, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return deckerr.New(deckerr.CodeCLIDeckNotRunning, "watchdeck is not running (connection refused)")
		}
		return deckerr.Wrap(err, deckerr.CodeCLIRequestFailure, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return deckerr.Errorf(deckerr.CodeCLIRequestFailure,
			"watchdeck returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
