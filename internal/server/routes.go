// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
	"github.com/watchdeck-dev/watchdeck/pkg/health"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/api/v1/board",
		Summary:     "Get the dashboard page",
		Description: "Scrape pools with their targets, grouped, filtered by health state, and paginated. Query values override the session's stored preferences and are written back to it.",
		Tags:        []string{"board"},
	}, s.handleGetBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-pools",
		Method:      http.MethodGet,
		Path:        "/api/v1/pools",
		Summary:     "List scrape pools with health counts",
		Tags:        []string{"board"},
	}, s.handleListPools)

	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Gateway and upstream status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-ui-state",
		Method:      http.MethodGet,
		Path:        "/api/v1/ui/{session}",
		Summary:     "Get a session's view preferences",
		Tags:        []string{"ui-state"},
	}, s.handleGetUIState)

	huma.Register(s.api, huma.Operation{
		OperationID: "put-ui-state",
		Method:      http.MethodPut,
		Path:        "/api/v1/ui/{session}",
		Summary:     "Replace a session's view preferences",
		Tags:        []string{"ui-state"},
	}, s.handlePutUIState)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-ui-state",
		Method:        http.MethodDelete,
		Path:          "/api/v1/ui/{session}",
		Summary:       "Forget a session's view preferences",
		Tags:          []string{"ui-state"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteUIState)
}

// --- Request/Response types for huma ---

type getBoardInput struct {
	Session string   `query:"session" doc:"Session ID tying the request to stored view preferences"`
	Pool    string   `query:"pool" doc:"Narrow the board to one scrape pool"`
	State   []string `query:"state" doc:"Health states to show (up, down, unknown); empty shows all"`
	Page    int      `query:"page" doc:"Page number within each pool table"`
	PerPage int      `query:"per_page" doc:"Rows per page"`
}

type getBoardOutput struct {
	Body board.Page
}

type listPoolsOutput struct {
	Body struct {
		Pools []board.PoolSummary `json:"pools"`
	}
}

type statusOutput struct {
	Body struct {
		Status   string         `json:"status" example:"ok" doc:"Gateway status"`
		Upstream health.Metrics `json:"upstream" doc:"Upstream health snapshot"`
	}
}

type sessionInput struct {
	Session string `path:"session" doc:"Session identifier"`
}

type uiStateOutput struct {
	Body uistate.State
}

type putUIStateInput struct {
	Session string `path:"session" doc:"Session identifier"`
	Body    struct {
		SelectedPool   string   `json:"selected_pool,omitempty" doc:"Pool the session has selected"`
		HealthFilters  []string `json:"health_filters,omitempty" doc:"Selected health states"`
		CollapsedPools []string `json:"collapsed_pools,omitempty" doc:"Pools rendered collapsed"`
	}
}

// --- Handlers ---

func (s *Server) handleGetBoard(ctx context.Context, input *getBoardInput) (*getBoardOutput, error) {
	page, err := s.services.Board().BuildPage(ctx, board.PageRequest{
		SessionID: input.Session,
		Pool:      input.Pool,
		States:    input.State,
		Page:      input.Page,
		PerPage:   input.PerPage,
	})
	if err != nil {
		return nil, humaError(err)
	}
	return &getBoardOutput{Body: *page}, nil
}

func (s *Server) handleListPools(ctx context.Context, _ *struct{}) (*listPoolsOutput, error) {
	pools, err := s.services.Board().Pools(ctx)
	if err != nil {
		return nil, humaError(err)
	}
	out := &listPoolsOutput{}
	out.Body.Pools = pools
	return out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Upstream = s.services.Board().UpstreamHealth()
	return out, nil
}

func (s *Server) handleGetUIState(ctx context.Context, input *sessionInput) (*uiStateOutput, error) {
	states := s.services.States()
	if states == nil {
		return nil, huma.Error503ServiceUnavailable("ui-state persistence is not configured")
	}

	state, err := states.Get(ctx, input.Session)
	if err != nil {
		if errors.Is(err, uistate.ErrNotFound) {
			return nil, huma.Error404NotFound("no state stored for session " + input.Session)
		}
		return nil, humaError(err)
	}
	return &uiStateOutput{Body: *state}, nil
}

func (s *Server) handlePutUIState(ctx context.Context, input *putUIStateInput) (*uiStateOutput, error) {
	states := s.services.States()
	if states == nil {
		return nil, huma.Error503ServiceUnavailable("ui-state persistence is not configured")
	}

	state := uistate.State{
		SessionID:      input.Session,
		SelectedPool:   input.Body.SelectedPool,
		HealthFilters:  input.Body.HealthFilters,
		CollapsedPools: input.Body.CollapsedPools,
	}
	if err := states.Put(ctx, &state); err != nil {
		if errors.Is(err, uistate.ErrInvalidInput) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, humaError(err)
	}
	return &uiStateOutput{Body: state}, nil
}

func (s *Server) handleDeleteUIState(ctx context.Context, input *sessionInput) (*struct{}, error) {
	states := s.services.States()
	if states == nil {
		return nil, huma.Error503ServiceUnavailable("ui-state persistence is not configured")
	}

	if err := states.Delete(ctx, input.Session); err != nil {
		return nil, humaError(err)
	}
	return &struct{}{}, nil
}

// humaError maps an error's code classification to an HTTP status.
func humaError(err error) error {
	return huma.NewError(deckerr.HTTPStatus(err), err.Error())
}
