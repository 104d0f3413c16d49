package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/albapepper/safecheck/internal/models"
	"github.com/albapepper/safecheck/internal/store"
)

// Ledger is the dedup view over the persisted notification log.
type Ledger struct {
	store  store.Store
	window time.Duration
	logger *slog.Logger
}

// NewLedger creates a ledger enforcing DedupWindow.
func NewLedger(s store.Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: s, window: DedupWindow, logger: logger}
}

// HasRecentNotification reports whether the pair has an entry in the window
// starting at since. Entries dated past the window end are not counted.
func (l *Ledger) HasRecentNotification(ctx context.Context, userID, contactID string, since time.Time) (bool, error) {
	return l.store.HasNotificationBetween(ctx, userID, contactID, since, since.Add(l.window))
}

// Record appends one entry. The store refuses a second entry for the pair
// inside the window; that means two runs overlapped and is logged as a
// logic error.
func (l *Ledger) Record(ctx context.Context, userID, contactID, status string, sentAt time.Time) error {
	entry := models.NotificationLogEntry{
		UserID:    userID,
		ContactID: contactID,
		SentAt:    sentAt,
		Status:    status,
	}
	err := l.store.AppendNotification(ctx, entry, sentAt.Add(-l.window))
	if errors.Is(err, store.ErrDuplicateNotification) {
		l.logger.Error("duplicate notification inside dedup window",
			"user_id", userID, "contact_id", contactID, "sent_at", sentAt)
	}
	return err
}
