// Package store is the persistence boundary for users, check-ins, emergency
// contacts and the append-only notification log.
//
// Drivers:
//   - "postgres": pgxpool with prepared statements (internal/db)
//   - "sqlite":   single-file SQLite via database/sql
//   - "memory":   process-local maps, for development and tests
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/db"
	"github.com/albapepper/safecheck/internal/models"
)

// RecentCheckInLimit caps how many check-ins LoadUser returns. Liveness only
// needs the latest one.
const RecentCheckInLimit = 30

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicateNotification is returned when an append would place two
	// ledger entries for the same pair inside one dedup window.
	ErrDuplicateNotification = errors.New("notification already recorded within dedup window")
)

// Store is the persistence API used by the notification job and the HTTP API.
type Store interface {
	// ListUserIDs returns every user id in ascending order.
	ListUserIDs(ctx context.Context) ([]string, error)
	// LoadUser returns the user with recent check-ins (newest first) and
	// contacts (by id). Returns ErrNotFound for unknown ids.
	LoadUser(ctx context.Context, userID string) (*models.User, error)

	// HasNotificationBetween reports whether the pair has an entry with
	// since <= sent_at <= until. Entries dated after until are ignored.
	HasNotificationBetween(ctx context.Context, userID, contactID string, since, until time.Time) (bool, error)
	// AppendNotification appends entry unless the pair already has an entry
	// with dedupSince <= sent_at <= entry.SentAt, in which case it returns
	// ErrDuplicateNotification. The append is durable when it returns.
	AppendNotification(ctx context.Context, entry models.NotificationLogEntry, dedupSince time.Time) error
	PurgeNotifications(ctx context.Context, before time.Time) (int64, error)

	// RegisterUser creates the user for deviceID or returns the existing
	// one, updating a non-empty display name.
	RegisterUser(ctx context.Context, deviceID, displayName string) (*models.User, error)
	RecordCheckIn(ctx context.Context, userID string, at time.Time) (models.CheckIn, error)
	AddContact(ctx context.Context, userID, name, email string) (models.EmergencyContact, error)
	RemoveContact(ctx context.Context, userID, contactID string) error

	Ping(ctx context.Context) error
	Close() error
}

// Open initializes the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return NewPostgres(pool), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}

// Migrate applies the schema for the configured driver.
func Migrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return db.Migrate(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		return s.Close()
	case config.DriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}
