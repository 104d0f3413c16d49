package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/albapepper/safecheck/internal/models"
	"github.com/albapepper/safecheck/internal/store"
)

var (
	errBoom = errors.New("boom")
	t0      = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSender records every email and fails for addresses in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []Email
	failFor map[string]error
	delay   time.Duration
	onSend  func(Email)
}

func (f *fakeSender) Send(ctx context.Context, e Email) error {
	if f.onSend != nil {
		f.onSend(e)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[e.To]; ok {
		return err
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeSender) emails() []Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Email(nil), f.sent...)
}

// failingStore wraps a Store and fails selected operations.
type failingStore struct {
	store.Store
	loadFail   map[string]error // by user id
	ledgerFail map[string]error // by contact id
	appendErr  error
	listErr    error
}

func (f *failingStore) ListUserIDs(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListUserIDs(ctx)
}

func (f *failingStore) LoadUser(ctx context.Context, userID string) (*models.User, error) {
	if err, ok := f.loadFail[userID]; ok {
		return nil, err
	}
	return f.Store.LoadUser(ctx, userID)
}

func (f *failingStore) HasNotificationBetween(ctx context.Context, userID, contactID string, since, until time.Time) (bool, error) {
	if err, ok := f.ledgerFail[contactID]; ok {
		return false, err
	}
	return f.Store.HasNotificationBetween(ctx, userID, contactID, since, until)
}

func (f *failingStore) AppendNotification(ctx context.Context, entry models.NotificationLogEntry, dedupSince time.Time) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Store.AppendNotification(ctx, entry, dedupSince)
}

// seedUser registers a user with the given check-in times and contacts
// named by email.
func seedUser(t *testing.T, s store.Store, device string, checkIns []time.Time, emails ...string) (*models.User, []models.EmergencyContact) {
	t.Helper()
	ctx := context.Background()
	u, err := s.RegisterUser(ctx, device, "")
	require.NoError(t, err)
	for _, at := range checkIns {
		_, err := s.RecordCheckIn(ctx, u.ID, at)
		require.NoError(t, err)
	}
	var contacts []models.EmergencyContact
	for _, email := range emails {
		c, err := s.AddContact(ctx, u.ID, "Contact "+email, email)
		require.NoError(t, err)
		contacts = append(contacts, c)
	}
	return u, contacts
}

func markNotified(t *testing.T, s store.Store, userID, contactID string, at time.Time) {
	t.Helper()
	err := s.AppendNotification(context.Background(), models.NotificationLogEntry{
		UserID:    userID,
		ContactID: contactID,
		SentAt:    at,
		Status:    models.NotificationSent,
	}, at.Add(-DedupWindow))
	require.NoError(t, err)
}

// testClock is the runner's wall clock in tests, well after every t0-based
// evaluation time.
var testClock = t0.Add(30 * 24 * time.Hour)

func newTestRunner(s store.Store, sender Sender) *Runner {
	r := NewRunner(s, sender, RunnerConfig{
		DispatchWorkers: 4,
		ScanWorkers:     4,
		SendRatePerSec:  1000,
		SendTimeout:     5 * time.Second,
	}, discardLogger())
	r.clock = func() time.Time { return testClock }
	return r
}
