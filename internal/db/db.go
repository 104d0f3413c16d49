// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and schema migration.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/safecheck/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema must already
// exist: statements are prepared on every new connection.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Migrate applies the embedded schema over a dedicated connection. The
// schema is idempotent, so Migrate is safe to run on every deploy.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// registerPreparedStatements registers every statement the store uses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Scanner reads
		"list_user_ids":         "SELECT id FROM users ORDER BY id",
		"user_by_id":            "SELECT id, device_id, COALESCE(display_name, ''), created_at FROM users WHERE id = $1",
		"user_recent_check_ins": "SELECT id, user_id, checked_in_at FROM check_ins WHERE user_id = $1 ORDER BY checked_in_at DESC LIMIT $2",
		"user_contacts":         "SELECT id, user_id, name, email FROM emergency_contacts WHERE user_id = $1 ORDER BY id",

		// Notification ledger
		"notification_between": "SELECT EXISTS (SELECT 1 FROM notification_logs WHERE user_id = $1 AND contact_id = $2 AND sent_at >= $3 AND sent_at <= $4)",
		"append_notification": `INSERT INTO notification_logs (user_id, contact_id, sent_at, status)
			SELECT $1::text, $2::text, $3::timestamptz, $4::text
			WHERE NOT EXISTS (
				SELECT 1 FROM notification_logs
				WHERE user_id = $1::text AND contact_id = $2::text
				AND sent_at >= $5::timestamptz AND sent_at <= $3::timestamptz
			)`,
		"purge_notifications": "DELETE FROM notification_logs WHERE sent_at < $1",

		// Check-ins and contacts
		"register_user": `INSERT INTO users (id, device_id, display_name) VALUES ($1, $2, NULLIF($3, ''))
			ON CONFLICT (device_id) DO UPDATE
			SET display_name = COALESCE(EXCLUDED.display_name, users.display_name)
			RETURNING id, device_id, COALESCE(display_name, ''), created_at`,
		"insert_check_in": "INSERT INTO check_ins (id, user_id, checked_in_at) VALUES ($1, $2, $3)",
		"insert_contact":  "INSERT INTO emergency_contacts (id, user_id, name, email) VALUES ($1, $2, $3, $4)",
		"delete_contact":  "DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
