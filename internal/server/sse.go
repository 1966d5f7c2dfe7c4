// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

func (s *Server) registerStreamRoute() {
	s.router.Get("/api/v1/board/stream", s.handleBoardStream)

	// Register the operation in the OpenAPI spec manually. The streaming
	// handler needs raw http.ResponseWriter access, so it cannot use Huma's
	// standard handler signature. The chi route above handles requests; this
	// entry documents it.
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "board-stream",
		Method:      http.MethodGet,
		Path:        "/api/v1/board/stream",
		Summary:     "Stream dashboard snapshots via SSE",
		Description: "Emits a board snapshot immediately and then on every poll interval. Set Accept: text/event-stream for SSE, otherwise receives a single JSON snapshot. Accepts the same query parameters as /api/v1/board.",
		Tags:        []string{"board"},
		Parameters: []*huma.Param{
			{Name: "session", In: "query", Schema: &huma.Schema{Type: "string"}},
			{Name: "pool", In: "query", Schema: &huma.Schema{Type: "string"}},
			{Name: "state", In: "query", Schema: &huma.Schema{Type: "array", Items: &huma.Schema{Type: "string"}}},
			{Name: "page", In: "query", Schema: &huma.Schema{Type: "integer"}},
			{Name: "per_page", In: "query", Schema: &huma.Schema{Type: "integer"}},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Board snapshots (SSE stream or single JSON snapshot depending on Accept header)",
				Content: map[string]*huma.MediaType{
					"text/event-stream": {
						Schema: &huma.Schema{
							Type:        "string",
							Description: "Server-sent event stream of board snapshots",
						},
					},
					"application/json": {
						Schema: &huma.Schema{
							Type:        "object",
							Description: "A single board snapshot",
						},
					},
				},
			},
			"502": {Description: "Upstream unreachable on the initial snapshot"},
		},
	})
}

// streamEvents are the SSE event names emitted by the board stream.
const (
	eventBoard = "board"
	eventError = "error"
)

func (s *Server) handleBoardStream(w http.ResponseWriter, r *http.Request) {
	req := parseBoardQuery(r.URL.Query())

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.streamBoard(w, r, req)
		return
	}
	s.writeBoardJSON(w, r, req)
}

// parseBoardQuery maps /api/v1/board query parameters onto a page request.
func parseBoardQuery(q url.Values) board.PageRequest {
	req := board.PageRequest{
		SessionID: q.Get("session"),
		Pool:      q.Get("pool"),
		States:    q["state"],
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		req.PerPage = perPage
	}
	return req
}

func (s *Server) streamBoard(w http.ResponseWriter, r *http.Request, req board.PageRequest) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		// httptest.ResponseRecorder doesn't implement Flusher,
		// but we still write the events for testability.
		flusher = nil
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	// First snapshot immediately, then one per tick. A failed refresh
	// becomes an error event and the stream keeps going so the client
	// recovers without reconnecting.
	for {
		event, data := s.snapshotEvent(r, req)
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) snapshotEvent(r *http.Request, req board.PageRequest) (event, data string) {
	page, err := s.services.Board().BuildPage(r.Context(), req)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{
			"error": err.Error(),
			"code":  string(deckerr.CodeOf(err)),
		})
		return eventError, string(payload)
	}

	payload, err := json.Marshal(page)
	if err != nil {
		return eventError, `{"error":"encoding board snapshot"}`
	}
	return eventBoard, string(payload)
}

func (s *Server) writeBoardJSON(w http.ResponseWriter, r *http.Request, req board.PageRequest) {
	page, err := s.services.Board().BuildPage(r.Context(), req)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(deckerr.HTTPStatus(err))
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
	}
}
