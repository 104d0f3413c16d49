// Package maintenance runs periodic background tasks as Go tickers next to
// the API server.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/safecheck/internal/notifications"
	"github.com/albapepper/safecheck/internal/store"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Ledger purge
	// Retention is how long ledger entries are kept. Values below the dedup
	// window are raised to it, or purging could re-enable a notification.
	Retention time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 6 * time.Hour,
		Retention:       30 * 24 * time.Hour,
	}
}

// EffectiveRetention returns the retention actually applied.
func (c Config) EffectiveRetention() time.Duration {
	if c.Retention < notifications.DedupWindow {
		return notifications.DedupWindow
	}
	return c.Retention
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, s store.Store, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"retention", cfg.EffectiveRetention())

	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() {
			_, _ = Cleanup(ctx, s, cfg.EffectiveRetention(), time.Now(), logger)
		})
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Cleanup removes ledger entries sent before now minus retention. Retention
// is clamped to the dedup window.
func Cleanup(ctx context.Context, s store.Store, retention time.Duration, now time.Time, logger *slog.Logger) (int64, error) {
	if retention < notifications.DedupWindow {
		retention = notifications.DedupWindow
	}
	cutoff := now.Add(-retention)
	n, err := s.PurgeNotifications(ctx, cutoff)
	if err != nil {
		logger.Warn("Cleanup: failed to purge notification log", "error", err)
		return 0, err
	}
	if n > 0 {
		logger.Info("Cleanup: purged notification log", "count", n, "before", cutoff)
	}
	return n, nil
}
