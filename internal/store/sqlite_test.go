package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/safecheck/internal/models"
)

func setupMockSQL(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SQLite) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock, NewSQL(db)
}

func TestSQLiteLoadUser_NotFound(t *testing.T) {
	_, mock, s := setupMockSQL(t)

	mock.ExpectQuery(`SELECT id, device_id`).
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := s.LoadUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteLoadUser_QueryError(t *testing.T) {
	_, mock, s := setupMockSQL(t)

	mock.ExpectQuery(`SELECT id, device_id`).
		WithArgs("u1").
		WillReturnError(errors.New("disk I/O error"))

	_, err := s.LoadUser(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get user")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteLoadUser_ContactsError(t *testing.T) {
	_, mock, s := setupMockSQL(t)

	mock.ExpectQuery(`SELECT id, device_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "display_name", "created_at"}).
			AddRow("u1", "dev-1", "", int64(0)))
	mock.ExpectQuery(`FROM check_ins`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "checked_in_at"}))
	mock.ExpectQuery(`FROM emergency_contacts`).
		WithArgs("u1").
		WillReturnError(errors.New("locked"))

	_, err := s.LoadUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get contacts")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteAppendNotification_Duplicate(t *testing.T) {
	_, mock, s := setupMockSQL(t)
	sentAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	since := sentAt.Add(-24 * time.Hour)

	mock.ExpectExec(`INSERT INTO notification_logs`).
		WithArgs("u1", "c1", sentAt.UnixMilli(), models.NotificationSent, "u1", "c1", since.UnixMilli(), sentAt.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.AppendNotification(context.Background(),
		models.NotificationLogEntry{UserID: "u1", ContactID: "c1", SentAt: sentAt, Status: models.NotificationSent}, since)
	assert.ErrorIs(t, err, ErrDuplicateNotification)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteAppendNotification_WriteError(t *testing.T) {
	_, mock, s := setupMockSQL(t)

	mock.ExpectExec(`INSERT INTO notification_logs`).
		WillReturnError(errors.New("database is locked"))

	err := s.AppendNotification(context.Background(),
		models.NotificationLogEntry{UserID: "u1", ContactID: "c1", Status: models.NotificationSent}, time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateNotification)
	require.NoError(t, mock.ExpectationsWereMet())
}
