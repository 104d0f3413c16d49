package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/albapepper/safecheck/internal/models"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLite is a database/sql Store for single-node deployments.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite prefers a single writer; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return NewSQL(db), nil
}

// NewSQL wraps an existing *sql.DB that already has the schema.
func NewSQL(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) LoadUser(ctx context.Context, userID string) (*models.User, error) {
	var (
		u         models.User
		createdMS int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, device_id, COALESCE(display_name, ''), created_at FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.DeviceID, &u.DisplayName, &createdMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdMS)

	if u.CheckIns, err = s.recentCheckIns(ctx, userID); err != nil {
		return nil, err
	}
	if u.Contacts, err = s.contacts(ctx, userID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLite) recentCheckIns(ctx context.Context, userID string) ([]models.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, checked_in_at FROM check_ins WHERE user_id = ? ORDER BY checked_in_at DESC LIMIT ?`,
		userID, RecentCheckInLimit)
	if err != nil {
		return nil, fmt.Errorf("get check-ins: %w", err)
	}
	defer rows.Close()

	var out []models.CheckIn
	for rows.Next() {
		var (
			c  models.CheckIn
			ms int64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &ms); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		c.CheckedInAt = fromMillis(ms)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) contacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, email FROM emergency_contacts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	defer rows.Close()

	var out []models.EmergencyContact
	for rows.Next() {
		var c models.EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) HasNotificationBetween(ctx context.Context, userID, contactID string, since, until time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM notification_logs WHERE user_id = ? AND contact_id = ? AND sent_at >= ? AND sent_at <= ?`,
		userID, contactID, since.UnixMilli(), until.UnixMilli(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) AppendNotification(ctx context.Context, entry models.NotificationLogEntry, dedupSince time.Time) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_logs (user_id, contact_id, sent_at, status)
		 SELECT ?, ?, ?, ?
		 WHERE NOT EXISTS (
			SELECT 1 FROM notification_logs
			WHERE user_id = ? AND contact_id = ? AND sent_at >= ? AND sent_at <= ?
		 )`,
		entry.UserID, entry.ContactID, entry.SentAt.UnixMilli(), entry.Status,
		entry.UserID, entry.ContactID, dedupSince.UnixMilli(), entry.SentAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	if n == 0 {
		return ErrDuplicateNotification
	}
	return nil
}

func (s *SQLite) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notification_logs WHERE sent_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge notification logs: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) RegisterUser(ctx context.Context, deviceID, displayName string) (*models.User, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, device_id, display_name, created_at) VALUES (?, ?, NULLIF(?, ''), ?)
		 ON CONFLICT (device_id) DO UPDATE
		 SET display_name = COALESCE(excluded.display_name, users.display_name)`,
		uuid.NewString(), deviceID, displayName, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	var (
		u         models.User
		createdMS int64
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, device_id, COALESCE(display_name, ''), created_at FROM users WHERE device_id = ?`, deviceID,
	).Scan(&u.ID, &u.DeviceID, &u.DisplayName, &createdMS)
	if err != nil {
		return nil, fmt.Errorf("get registered user: %w", err)
	}
	u.CreatedAt = fromMillis(createdMS)
	return &u, nil
}

func (s *SQLite) RecordCheckIn(ctx context.Context, userID string, at time.Time) (models.CheckIn, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return models.CheckIn{}, err
	}
	c := models.CheckIn{ID: uuid.NewString(), UserID: userID, CheckedInAt: fromMillis(at.UnixMilli())}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO check_ins (id, user_id, checked_in_at) VALUES (?, ?, ?)`,
		c.ID, c.UserID, at.UnixMilli()); err != nil {
		return models.CheckIn{}, fmt.Errorf("insert check-in: %w", err)
	}
	return c, nil
}

func (s *SQLite) AddContact(ctx context.Context, userID, name, email string) (models.EmergencyContact, error) {
	name, email, err := models.ValidateContact(name, email)
	if err != nil {
		return models.EmergencyContact{}, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return models.EmergencyContact{}, err
	}
	c := models.EmergencyContact{ID: uuid.NewString(), UserID: userID, Name: name, Email: email}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO emergency_contacts (id, user_id, name, email) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Email); err != nil {
		return models.EmergencyContact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (s *SQLite) RemoveContact(ctx context.Context, userID, contactID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM emergency_contacts WHERE id = ? AND user_id = ?`, contactID, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) requireUser(ctx context.Context, userID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
