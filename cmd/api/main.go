// Command api is the Safecheck API server. It also runs the inactivity
// check on JOB_SCHEDULE and purges old notification log entries.
//
// Usage:
//
//	safecheck-api
//	API_PORT=8080 JOB_SCHEDULE=15m safecheck-api

// @title Safecheck API
// @version 1.0.0
// @description Check-in API and inactivity job for the Safecheck dead man's switch.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Safecheck
// @license.name MIT
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/albapepper/safecheck/internal/api"
	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/notifications"
	"github.com/albapepper/safecheck/internal/store"

	_ "github.com/albapepper/safecheck/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logger *slog.Logger
	if cfg.IsProduction() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open store
	logger.Info("Opening store...", "driver", cfg.StoreDriver)
	s, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()
	logger.Info("Store ready",
		"driver", cfg.StoreDriver,
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	runner := notifications.NewFromConfig(s, cfg, logger)

	if err := api.Serve(ctx, cfg, s, runner, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
