// Command safecheck is the Safecheck operations CLI.
//
// Usage:
//
//	safecheck run
//	safecheck run --dry-run --now 2026-05-01T12:00:00Z
//	safecheck run --workers 8 --timeout 5m
//	safecheck serve
//	safecheck migrate
//	safecheck status --user 3f1c...
//	safecheck cleanup --retention 720h
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/safecheck/internal/api"
	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/liveness"
	"github.com/albapepper/safecheck/internal/maintenance"
	"github.com/albapepper/safecheck/internal/notifications"
	"github.com/albapepper/safecheck/internal/store"

	_ "github.com/albapepper/safecheck/docs" // swagger docs
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "safecheck",
		Short:        "Safecheck inactivity job and operations CLI",
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(cleanupCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		nowFlag string
		workers int
		timeout time.Duration
		dryRun  bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one inactivity check and notify emergency contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := notifications.Options{Workers: workers, Timeout: timeout, DryRun: dryRun}
			if nowFlag != "" {
				if !dryRun {
					return fmt.Errorf("--now requires --dry-run")
				}
				t, err := time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("--now must be RFC3339: %w", err)
				}
				opts.Now = t
			}

			return withStore(func(ctx context.Context, cfg *config.Config, s store.Store) error {
				sum, err := notifications.NewFromConfig(s, cfg, logger).Run(ctx, opts)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if err := enc.Encode(sum); err != nil {
						return fmt.Errorf("encode summary: %w", err)
					}
				}
				for _, e := range sum.Errors {
					logger.Error("run error", "error", e)
				}
				for _, r := range sum.Results {
					if r.Outcome == notifications.OutcomeCandidate {
						logger.Info("would notify", "user_id", r.UserID, "contact_id", r.ContactID, "email", r.ContactEmail)
					}
				}
				if !sum.OK() {
					return fmt.Errorf("run finished with errors: %s", sum.Summary())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&nowFlag, "now", "", "Evaluate at this time (RFC3339) instead of the current time; requires --dry-run")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent send workers (0 = DISPATCH_WORKERS)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Deadline for the whole run (0 = JOB_TIMEOUT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report candidates without sending or recording")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON")
	return cmd
}

// --------------------------------------------------------------------------
// serve command
// --------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server with the scheduled inactivity check",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, s store.Store) error {
				return api.Serve(ctx, cfg, s, notifications.NewFromConfig(s, cfg, logger), logger)
			})
		},
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			start := time.Now()
			if err := store.Migrate(ctx, cfg); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("Schema applied", "driver", cfg.StoreDriver, "duration", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// status command
// --------------------------------------------------------------------------

func statusCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show liveness status for one user, or all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, s store.Store) error {
				ids := []string{userID}
				if userID == "" {
					var err error
					if ids, err = s.ListUserIDs(ctx); err != nil {
						return fmt.Errorf("list users: %w", err)
					}
				}

				now := time.Now().UTC()
				out := cmd.OutOrStdout()
				for _, id := range ids {
					u, err := s.LoadUser(ctx, id)
					if err != nil {
						return fmt.Errorf("load user %s: %w", id, err)
					}
					r := liveness.Evaluate(u, now)
					last := "never"
					if r.LastCheckIn != nil {
						last = r.LastCheckIn.CheckedInAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%s\t%s\tstatus=%s\tlast_check_in=%s\tdays=%.2f\tcontacts=%d\n",
						u.ID, u.DisplayIdentifier(), r.Status, last, r.ElapsedDays, len(u.Contacts))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (empty = all users)")
	return cmd
}

// --------------------------------------------------------------------------
// cleanup command
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge notification log entries older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, s store.Store) error {
				keep := cfg.NotificationRetention
				if retention > 0 {
					keep = retention
				}
				n, err := maintenance.Cleanup(ctx, s, keep, time.Now(), logger)
				if err != nil {
					return err
				}
				logger.Info("Cleanup finished", "purged", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 0, "Keep entries newer than this (0 = NOTIFICATION_RETENTION; never below 24h)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, nil
}

// withStore handles config loading, store setup, and context cancellation.
func withStore(fn func(ctx context.Context, cfg *config.Config, s store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	return fn(ctx, cfg, s)
}
