// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

// Package server exposes the dashboard over HTTP: a typed JSON API with an
// OpenAPI spec, a server-sent-event stream of board snapshots, UI-state
// endpoints, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PollInterval is the refresh cadence of the board stream endpoint.
	PollInterval time.Duration

	// AuthTokens are accepted bearer tokens. Empty disables authentication.
	AuthTokens []string

	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For
	// headers are honored. Empty means forwarded headers are ignored.
	TrustedProxies []string

	RateLimit RateLimitConfig

	// Metrics is the registry exposed at /metrics. Nil falls back to the
	// process-wide default gatherer.
	Metrics prometheus.Gatherer
}

// Server wraps a chi router with a huma API and an HTTP server.
type Server struct {
	router   chi.Router
	api      huma.API
	cfg      Config
	services *Services
	done     chan struct{}
}

// New creates a Server with chi router, huma API, health endpoint, CORS,
// rate limiting, and optional bearer-token auth.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, deckerr.New(deckerr.CodeServerConfigInvalid, "listen address is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// The stream endpoint holds connections open across refreshes.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:  cfg,
		done: make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if len(cfg.TrustedProxies) > 0 {
		trusted, err := parseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			return nil, err
		}
		r.Use(trustedProxyRealIP(trusted))
	}

	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware(cfg.RateLimit, srv.done))
	r.Use(bearerAuthMiddleware(cfg.AuthTokens))

	humaConfig := huma.DefaultConfig("Watchdeck", "0.1.0")
	humaConfig.Info.Description = "Scrape-targets dashboard API"
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthBody{Status: "ok"}}, nil
	})

	gatherer := cfg.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv.router = r
	srv.api = api

	return srv, nil
}

// RegisterServices sets the service dependencies and registers API routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
	s.registerStreamRoute()
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return deckerr.Wrapf(err, deckerr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()
	close(s.done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return deckerr.Wrap(err, deckerr.CodeServerShutdownFailure, "shutting down")
	}

	return <-errCh
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
