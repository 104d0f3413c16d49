package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/maintenance"
	"github.com/albapepper/safecheck/internal/notifications"
	"github.com/albapepper/safecheck/internal/scheduler"
	"github.com/albapepper/safecheck/internal/store"
)

// Serve runs the HTTP server, the scheduled inactivity check and the
// maintenance tickers until ctx is cancelled. JOB_SCHEDULE=off disables the
// in-process schedule.
func Serve(ctx context.Context, cfg *config.Config, s store.Store, runner *notifications.Runner, logger *slog.Logger) error {
	if spec := strings.TrimSpace(cfg.JobSchedule); spec != "" && !strings.EqualFold(spec, "off") {
		sched, err := scheduler.New(spec, cfg.JobTimeout, func(ctx context.Context) error {
			_, err := runner.Run(ctx, notifications.Options{})
			return err
		}, logger)
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		sched.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	} else {
		logger.Info("Scheduled inactivity check disabled")
	}

	// Maintenance tickers (ledger cleanup)
	mcfg := maintenance.DefaultConfig()
	if cfg.CleanupInterval > 0 {
		mcfg.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.NotificationRetention > 0 {
		mcfg.Retention = cfg.NotificationRetention
	}
	go maintenance.Start(ctx, s, mcfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(s, runner, cfg, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.JobTimeout + 30*time.Second, // job trigger responds after the run
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting Safecheck API",
			"addr", addr,
			"environment", cfg.Environment,
			"store", cfg.StoreDriver,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}
