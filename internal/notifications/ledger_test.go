package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/safecheck/internal/models"
	"github.com/albapepper/safecheck/internal/store"
)

func TestLedgerWindow(t *testing.T) {
	s := store.NewMemory()
	l := NewLedger(s, discardLogger())
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "u", "c", models.NotificationSent, t0))

	tests := []struct {
		name  string
		since time.Time
		want  bool
	}{
		{"since before entry", t0.Add(-time.Hour), true},
		{"since equals entry", t0, true},
		{"since after entry", t0.Add(time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.HasRecentNotification(ctx, "u", "c", tt.since)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	other, err := l.HasRecentNotification(ctx, "u", "other", t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, other)
}

func TestLedgerRefusesDuplicateInsideWindow(t *testing.T) {
	s := store.NewMemory()
	l := NewLedger(s, discardLogger())
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "u", "c", models.NotificationSent, t0))
	err := l.Record(ctx, "u", "c", models.NotificationSent, t0.Add(DedupWindow-time.Minute))
	assert.ErrorIs(t, err, store.ErrDuplicateNotification)

	require.NoError(t, l.Record(ctx, "u", "c", models.NotificationSent, t0.Add(DedupWindow+time.Minute)))
	assert.Len(t, s.Notifications("u", "c"), 2)
}
