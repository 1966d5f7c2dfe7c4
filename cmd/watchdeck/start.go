// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/watchdeck-dev/watchdeck/internal/board"
	"github.com/watchdeck-dev/watchdeck/internal/config"
	"github.com/watchdeck-dev/watchdeck/internal/server"
	"github.com/watchdeck-dev/watchdeck/internal/uistate"
	_ "github.com/watchdeck-dev/watchdeck/internal/uistate/sqlite"
	"github.com/watchdeck-dev/watchdeck/internal/upstream"
	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the watchdeck dashboard server",
		Long:  "Load configuration, connect to the upstream metrics API, and serve the dashboard until interrupted.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	cmd.Flags().String("upstream", "", "override upstream metrics API URL")
	_ = viper.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("upstream.url", cmd.Flags().Lookup("upstream"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:         cfg.Upstream.URL,
		Timeout:         cfg.Upstream.Timeout,
		RetryAttempts:   cfg.Upstream.RetryAttempts,
		BreakerFailures: cfg.Upstream.BreakerFailures,
		BreakerTimeout:  cfg.Upstream.BreakerTimeout,
		HealthCooldown:  cfg.Upstream.HealthCooldown,
		PollRate:        cfg.Upstream.PollRate,
		PollBurst:       cfg.Upstream.PollBurst,
	}, registry)
	if err != nil {
		return err
	}

	states, err := uistate.NewStore(&uistate.StorageConfig{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := states.Close(); err != nil {
			slog.Warn("closing ui-state store", "error", err)
		}
	}()

	boardSvc, err := board.NewService(client, states, board.Options{
		PerPage:   cfg.Dashboard.PerPage,
		PoolLimit: cfg.Dashboard.PoolLimit,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr:     cfg.Networking.Listen,
		CORSOrigins:    cfg.Networking.CORSOrigins,
		PollInterval:   cfg.Dashboard.PollInterval,
		AuthTokens:     cfg.Auth.Tokens,
		TrustedProxies: cfg.Networking.TrustedProxies,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MaxVisitors:       cfg.RateLimit.MaxVisitors,
		},
		Metrics: registry,
	})
	if err != nil {
		return err
	}

	svc, err := server.NewServices(boardSvc, states)
	if err != nil {
		return err
	}
	srv.RegisterServices(svc)

	slog.Info("starting watchdeck",
		"listen", cfg.Networking.Listen,
		"upstream", cfg.Upstream.URL,
		"storage", cfg.Storage.Backend)

	if err := srv.Start(ctx); err != nil {
		return deckerr.Wrap(err, deckerr.CodeServerStartFailure, "running server")
	}

	slog.Info("watchdeck stopped")
	return nil
}
