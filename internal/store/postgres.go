package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/safecheck/internal/db"
	"github.com/albapepper/safecheck/internal/models"
)

const pgForeignKeyViolation = "23503"

// Postgres is the production Store. All queries go through statements
// prepared in internal/db.
type Postgres struct {
	pool *db.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, "list_user_ids")
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

func (p *Postgres) LoadUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := p.pool.QueryRow(ctx, "user_by_id", userID).Scan(&u.ID, &u.DeviceID, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := p.pool.Query(ctx, "user_recent_check_ins", userID, RecentCheckInLimit)
	if err != nil {
		return nil, fmt.Errorf("get check-ins: %w", err)
	}
	u.CheckIns, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CheckIn, error) {
		var c models.CheckIn
		err := row.Scan(&c.ID, &c.UserID, &c.CheckedInAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan check-ins: %w", err)
	}

	rows, err = p.pool.Query(ctx, "user_contacts", userID)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	u.Contacts, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.EmergencyContact, error) {
		var c models.EmergencyContact
		err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan contacts: %w", err)
	}
	return &u, nil
}

func (p *Postgres) HasNotificationBetween(ctx context.Context, userID, contactID string, since, until time.Time) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, "notification_between", userID, contactID, since, until).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return exists, nil
}

func (p *Postgres) AppendNotification(ctx context.Context, entry models.NotificationLogEntry, dedupSince time.Time) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	tag, err := p.pool.Exec(ctx, "append_notification",
		entry.UserID, entry.ContactID, entry.SentAt, entry.Status, dedupSince)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateNotification
	}
	return nil
}

func (p *Postgres) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, "purge_notifications", before)
	if err != nil {
		return 0, fmt.Errorf("purge notification logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) RegisterUser(ctx context.Context, deviceID, displayName string) (*models.User, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	var u models.User
	err := p.pool.QueryRow(ctx, "register_user", uuid.NewString(), deviceID, displayName).
		Scan(&u.ID, &u.DeviceID, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) RecordCheckIn(ctx context.Context, userID string, at time.Time) (models.CheckIn, error) {
	c := models.CheckIn{ID: uuid.NewString(), UserID: userID, CheckedInAt: at.UTC()}
	if _, err := p.pool.Exec(ctx, "insert_check_in", c.ID, c.UserID, c.CheckedInAt); err != nil {
		return models.CheckIn{}, mapWriteError("insert check-in", userID, err)
	}
	return c, nil
}

func (p *Postgres) AddContact(ctx context.Context, userID, name, email string) (models.EmergencyContact, error) {
	name, email, err := models.ValidateContact(name, email)
	if err != nil {
		return models.EmergencyContact{}, err
	}
	c := models.EmergencyContact{ID: uuid.NewString(), UserID: userID, Name: name, Email: email}
	if _, err := p.pool.Exec(ctx, "insert_contact", c.ID, c.UserID, c.Name, c.Email); err != nil {
		return models.EmergencyContact{}, mapWriteError("insert contact", userID, err)
	}
	return c, nil
}

func (p *Postgres) RemoveContact(ctx context.Context, userID, contactID string) error {
	tag, err := p.pool.Exec(ctx, "delete_contact", contactID, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.HealthCheck(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// mapWriteError turns a foreign key violation on user_id into ErrNotFound.
func mapWriteError(op, userID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
