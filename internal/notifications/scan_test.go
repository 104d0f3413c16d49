package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/safecheck/internal/liveness"
	"github.com/albapepper/safecheck/internal/store"
)

func TestScanOrdersCandidatesByUserThenContact(t *testing.T) {
	s := store.NewMemory()
	for _, d := range []string{"z", "m", "a", "q"} {
		seedUser(t, s, "device-"+d, nil, d+"1@example.com", d+"2@example.com")
	}

	res, err := NewScanner(s, NewLedger(s, discardLogger()), 3, discardLogger()).Scan(context.Background(), t0)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 8)
	for i := 1; i < len(res.Candidates); i++ {
		prev, cur := res.Candidates[i-1], res.Candidates[i]
		if prev.UserID == cur.UserID {
			assert.Less(t, prev.Contact.ID, cur.Contact.ID)
		} else {
			assert.Less(t, prev.UserID, cur.UserID)
		}
	}
	assert.False(t, res.Partial)
}

func TestScanNeverCheckedInIsDanger(t *testing.T) {
	s := store.NewMemory()
	u, _ := seedUser(t, s, "device-u", nil, "c@example.com")

	res, err := NewScanner(s, NewLedger(s, discardLogger()), 1, discardLogger()).Scan(context.Background(), t0)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, liveness.Never, res.Candidates[0].Elapsed)
	assert.Equal(t, "device-u", res.Candidates[0].UserName)
	assert.Equal(t, u.ID, res.Candidates[0].UserID)
}

func TestScanUsesLatestCheckIn(t *testing.T) {
	s := store.NewMemory()
	seedUser(t, s, "device-u", []time.Time{
		t0.Add(-100 * time.Hour),
		t0.Add(-2 * time.Hour),
		t0.Add(-70 * time.Hour),
	}, "c@example.com")

	res, err := NewScanner(s, NewLedger(s, discardLogger()), 1, discardLogger()).Scan(context.Background(), t0)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 1, res.UsersScanned)
}

func TestScanCancelledIsPartial(t *testing.T) {
	s := store.NewMemory()
	seedUser(t, s, "device-a", nil, "a@example.com")
	seedUser(t, s, "device-b", nil, "b@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewScanner(s, NewLedger(s, discardLogger()), 1, discardLogger()).Scan(ctx, t0)
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Zero(t, res.UsersScanned)
	assert.Empty(t, res.Candidates)
}
