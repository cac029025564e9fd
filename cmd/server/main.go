// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/larder/internal/api"
	"github.com/tomtom215/larder/internal/auth"
	"github.com/tomtom215/larder/internal/authz"
	"github.com/tomtom215/larder/internal/cache"
	"github.com/tomtom215/larder/internal/config"
	"github.com/tomtom215/larder/internal/database"
	"github.com/tomtom215/larder/internal/events"
	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/media"
	"github.com/tomtom215/larder/internal/metrics"
	"github.com/tomtom215/larder/internal/supervisor"
	"github.com/tomtom215/larder/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// A .env file is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Fatal().Err(err).Msg("Failed to read .env file")
	}

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

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("token_store", cfg.Security.TokenStore).
		Msg("Starting Larder with supervisor tree")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer closeDatabase(db)
	logging.Info().Msg("Database initialized successfully")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		closeDatabase(db)
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	revoked, err := auth.NewRevocationStore(&cfg.Security)
	if err != nil {
		closeDatabase(db)
		logging.Fatal().Err(err).Msg("Failed to open token revocation store")
	}
	defer func() {
		if err := revoked.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing token revocation store")
		}
	}()

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		closeDatabase(db)
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}

	mediaStore, err := media.NewStore(&cfg.Media)
	if err != nil {
		closeDatabase(db)
		logging.Fatal().Err(err).Msg("Failed to initialize media store")
	}

	shortLinks := cache.New[string, int64]("short_links", cfg.API.ShortLinkCacheTTL)

	bus := events.NewBus(events.DefaultBusConfig(), shortLinks)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	handler, err := api.NewHandler(api.Dependencies{
		DB:         db,
		Config:     cfg,
		JWTManager: jwtManager,
		Revoked:    revoked,
		Enforcer:   enforcer,
		Media:      mediaStore,
		Events:     bus,
		ShortLinks: shortLinks,
	})
	if err != nil {
		closeDatabase(db)
		logging.Fatal().Err(err).Msg("Failed to initialize API handler")
	}

	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager, revoked),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === BUILD SUPERVISOR TREE ===

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddDataService(shortLinks)
	tree.AddDataService(auth.NewCleanupService(revoked, auth.DefaultCleanupInterval))
	tree.AddMessagingService(bus)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	stop()

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// closeDatabase checkpoints and closes the database. It is also used on the
// fatal paths, where deferred calls do not run.
func closeDatabase(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
