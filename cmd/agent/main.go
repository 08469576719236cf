// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

// Package main is the entry point for the reservasync agent.
//
// The agent keeps a local mirror of a traveler's reservations in sync with
// the Stellar Tours booking platform. Mutations apply optimistically to the
// local collection and resolve when the platform confirms or rejects them;
// a WebSocket stream merges server-side changes as they happen; periodic
// full reconciliation repairs whatever drift remains.
//
// # Application Architecture
//
// The agent initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Gateway: Platform REST client with rate limiting and circuit breaker
//  3. Cache: TTL-bounded read cache for single-reservation lookups
//  4. Store: Reservation collection with optimistic mutation tracking
//  5. Realtime: WebSocket event stream wired into the store
//  6. Supervisor tree: Stream, maintenance, and API service layers
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. PLATFORM_URL is the only required setting.
//
// # Signal Handling
//
// The agent handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, the WebSocket connection closes, and
// the supervisor waits for every service to stop (10s timeout).
//
// # Example Usage
//
// Development, no authentication on the local API:
//
//	export PLATFORM_URL=https://plataforma.stellartours.example
//	./agent
//
// Production with JWT on the local API:
//
//	export PLATFORM_URL=https://plataforma.stellartours.example
//	export JWT_SECRET=$(openssl rand -base64 32)
//	./agent
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stellartours/reservasync/internal/api"
	"github.com/stellartours/reservasync/internal/auth"
	"github.com/stellartours/reservasync/internal/cache"
	"github.com/stellartours/reservasync/internal/config"
	"github.com/stellartours/reservasync/internal/gateway"
	"github.com/stellartours/reservasync/internal/logging"
	"github.com/stellartours/reservasync/internal/metrics"
	"github.com/stellartours/reservasync/internal/notify"
	"github.com/stellartours/reservasync/internal/realtime"
	"github.com/stellartours/reservasync/internal/store"
	"github.com/stellartours/reservasync/internal/supervisor"
	"github.com/stellartours/reservasync/internal/supervisor/services"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	metrics.SetAppInfo(version)

	logging.Info().Str("version", version).Msg("Starting reservasync agent with supervisor tree")
	logging.Info().
		Str("platform_url", cfg.Platform.URL).
		Str("realtime_url", cfg.RealtimeURL()).
		Bool("auth_enabled", cfg.AuthEnabled()).
		Msg("Configuration loaded")

	// Session and JWT manager are optional: without a secret the local API
	// is unauthenticated and platform requests carry no bearer token.
	var jwtManager *auth.JWTManager
	var session *auth.Session
	if cfg.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create JWT manager")
		}
		session = auth.NewSession(jwtManager)
		logging.Info().Dur("session_timeout", cfg.Security.SessionTimeout).Msg("Authentication enabled")
	}

	var token gateway.TokenFunc
	if session != nil {
		token = session.Token
	}

	// Platform gateway with rate limiting, wrapped in a circuit breaker so
	// a platform outage fails fast instead of piling up requests.
	gw := gateway.NewCircuitBreakerClient(gateway.NewClient(gateway.Config{
		BaseURL:        cfg.Platform.URL,
		Token:          token,
		Timeout:        cfg.Platform.Timeout,
		RateLimit:      cfg.Platform.RateLimit,
		RateBurst:      cfg.Platform.RateBurst,
		MaxRetries:     cfg.Platform.MaxRetries,
		RetryBaseDelay: cfg.Platform.RetryBackoff,
	}))

	if err := gw.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to reach booking platform (will retry)")
	} else {
		logging.Info().Msg("Connected to booking platform")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reservationCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)

	reservations := store.New(gw, reservationCache, notify.NewLog(), store.Options{
		PerPage:         cfg.Store.PerPage,
		OrphanThreshold: cfg.Janitor.OrphanThreshold,
	})

	// Session transitions drive store lifecycle: login loads the
	// collection, logout wipes it.
	if session != nil {
		session.Subscribe(reservations.AuthCallback(ctx))
	} else if _, err := reservations.LoadAll(ctx, true); err != nil {
		logging.Warn().Err(err).Msg("Initial reservation load failed (will retry on demand)")
	}

	// Realtime stream wired into the store's reconciliation path.
	var rtToken realtime.TokenFunc
	if session != nil {
		rtToken = session.Token
	}
	stream := realtime.NewClient(realtime.Config{
		URL:              cfg.RealtimeURL(),
		Token:            rtToken,
		HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
	})
	stream.SubscribeUpdates(reservations.HandleUpdate)

	// Supervisor tree bridges zerolog to slog for sutureslog.
	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Local HTTP API
	handler := api.NewHandler(reservations, reservationCache, jwtManager)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.MiddlewareConfigFromSecurity(cfg.Security)))
	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddStreamService(services.NewRealtimeService(stream))
	logging.Info().Msg("Realtime listener added to supervisor tree")

	tree.AddMaintenanceService(services.NewJanitorService(reservations, cfg.Janitor.Interval))
	tree.AddMaintenanceService(services.NewSyncService(reservations, cfg.Sync.Interval))
	logging.Info().
		Dur("janitor_interval", cfg.Janitor.Interval).
		Dur("sync_interval", cfg.Sync.Interval).
		Msg("Maintenance services added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if err := stream.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing realtime stream")
	}

	logging.Info().Msg("Agent stopped gracefully")
}
