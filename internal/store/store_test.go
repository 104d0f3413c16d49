package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/db"
	"github.com/albapepper/safecheck/internal/models"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// backends runs fn against every Store implementation. Postgres is skipped
// unless DATABASE_URL is set.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, openTestPostgres(t))
	})
}

// openTestPostgres returns a Postgres store on an emptied schema. Set
// DATABASE_URL to a disposable database to run it.
func openTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, url))

	pool, err := db.New(ctx, &config.Config{
		DatabaseURL:    url,
		DBPoolMinConns: 1,
		DBPoolMaxConns: 4,
		DBPoolMaxLife:  time.Hour,
	})
	require.NoError(t, err)
	s := NewPostgres(pool)
	t.Cleanup(func() { _ = s.Close() })

	_, err = pool.Exec(ctx, "TRUNCATE notification_logs, emergency_contacts, check_ins, users")
	require.NoError(t, err)
	return s
}

func TestRegisterUserIsIdempotentPerDevice(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u1, err := s.RegisterUser(ctx, "device-a", "")
		require.NoError(t, err)
		u2, err := s.RegisterUser(ctx, "device-a", "Ada")
		require.NoError(t, err)

		assert.Equal(t, u1.ID, u2.ID)
		assert.Equal(t, "Ada", u2.DisplayName)

		u3, err := s.RegisterUser(ctx, "device-a", "")
		require.NoError(t, err)
		assert.Equal(t, "Ada", u3.DisplayName, "empty name keeps the existing one")

		ids, err := s.ListUserIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{u1.ID}, ids)
	})
}

func TestLoadUserReturnsCheckInsNewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u, err := s.RegisterUser(ctx, "device-a", "")
		require.NoError(t, err)

		for _, h := range []int{5, 1, 3} {
			_, err := s.RecordCheckIn(ctx, u.ID, t0.Add(time.Duration(h)*time.Hour))
			require.NoError(t, err)
		}
		c, err := s.AddContact(ctx, u.ID, " Mom ", "mom@example.com")
		require.NoError(t, err)

		loaded, err := s.LoadUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, loaded.CheckIns, 3)
		assert.True(t, loaded.CheckIns[0].CheckedInAt.Equal(t0.Add(5*time.Hour)))
		assert.True(t, loaded.CheckIns[2].CheckedInAt.Equal(t0.Add(1*time.Hour)))
		require.Len(t, loaded.Contacts, 1)
		assert.Equal(t, c.ID, loaded.Contacts[0].ID)
		assert.Equal(t, "Mom", loaded.Contacts[0].Name)
	})
}

func TestUnknownUser(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.LoadUser(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.RecordCheckIn(ctx, "missing", t0)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.AddContact(ctx, "missing", "Mom", "mom@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAddContactValidatesEmail(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u, err := s.RegisterUser(ctx, "device-a", "")
		require.NoError(t, err)

		_, err = s.AddContact(ctx, u.ID, "Mom", "not-an-email")
		assert.ErrorIs(t, err, models.ErrContactEmailInvalid)
	})
}

func TestRemoveContact(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u, err := s.RegisterUser(ctx, "device-a", "")
		require.NoError(t, err)
		c, err := s.AddContact(ctx, u.ID, "Mom", "mom@example.com")
		require.NoError(t, err)

		require.NoError(t, s.RemoveContact(ctx, u.ID, c.ID))
		assert.ErrorIs(t, s.RemoveContact(ctx, u.ID, c.ID), ErrNotFound)

		loaded, err := s.LoadUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Contacts)
	})
}

func TestAppendNotificationRefusesDuplicateWithinWindow(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		window := 24 * time.Hour
		entry := models.NotificationLogEntry{UserID: "u1", ContactID: "c1", SentAt: t0, Status: models.NotificationSent}

		require.NoError(t, s.AppendNotification(ctx, entry, t0.Add(-window)))

		has, err := s.HasNotificationBetween(ctx, "u1", "c1", t0.Add(-time.Hour), t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, has)

		has, err = s.HasNotificationBetween(ctx, "u1", "c1", t0.Add(time.Minute), t0.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, has)

		dup := entry
		dup.SentAt = t0.Add(23 * time.Hour)
		err = s.AppendNotification(ctx, dup, dup.SentAt.Add(-window))
		assert.ErrorIs(t, err, ErrDuplicateNotification)

		next := entry
		next.SentAt = t0.Add(25 * time.Hour)
		require.NoError(t, s.AppendNotification(ctx, next, next.SentAt.Add(-window)))

		other := entry
		other.ContactID = "c2"
		other.SentAt = t0.Add(time.Hour)
		require.NoError(t, s.AppendNotification(ctx, other, other.SentAt.Add(-window)))
	})
}

func TestFutureDatedNotificationIsOutsideWindow(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		window := 24 * time.Hour
		future := models.NotificationLogEntry{
			UserID: "u1", ContactID: "c1",
			SentAt: t0.Add(365 * 24 * time.Hour), Status: models.NotificationSent,
		}
		require.NoError(t, s.AppendNotification(ctx, future, future.SentAt.Add(-window)))

		has, err := s.HasNotificationBetween(ctx, "u1", "c1", t0.Add(-window), t0)
		require.NoError(t, err)
		assert.False(t, has)

		entry := future
		entry.SentAt = t0
		require.NoError(t, s.AppendNotification(ctx, entry, t0.Add(-window)))
	})
}

func TestPurgeNotifications(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			e := models.NotificationLogEntry{
				UserID: "u1", ContactID: "c1",
				SentAt: t0.Add(time.Duration(i) * 48 * time.Hour), Status: models.NotificationSent,
			}
			require.NoError(t, s.AppendNotification(ctx, e, e.SentAt.Add(-24*time.Hour)))
		}

		n, err := s.PurgeNotifications(ctx, t0.Add(50*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		has, err := s.HasNotificationBetween(ctx, "u1", "c1", t0, t0.Add(100*time.Hour))
		require.NoError(t, err)
		assert.True(t, has, "newest entry survives")
	})
}

func TestMemoryNotificationsSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	e := models.NotificationLogEntry{UserID: "u1", ContactID: "c1", SentAt: t0, Status: models.NotificationSent}
	require.NoError(t, m.AppendNotification(ctx, e, t0.Add(-24*time.Hour)))

	got := m.Notifications("u1", "c1")
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].ID)
	assert.Empty(t, m.Notifications("u1", "c2"))
}

func TestMapWriteError(t *testing.T) {
	fk := &pgconn.PgError{Code: pgForeignKeyViolation}
	err := mapWriteError("insert check-in", "u1", fmt.Errorf("exec: %w", fk))
	assert.ErrorIs(t, err, ErrNotFound)

	other := mapWriteError("insert check-in", "u1", errors.New("boom"))
	assert.NotErrorIs(t, other, ErrNotFound)
	assert.Contains(t, other.Error(), "insert check-in")
}
