package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"@hourly", "@hourly", false},
		{"  @every 15m ", "@every 15m", false},
		{"0 * * * *", "0 * * * *", false},
		{"30 0 * * * *", "30 0 * * * *", false},
		{"30m", "@every 30m0s", false},
		{"1h30m", "@every 1h30m0s", false},
		{"", "", true},
		{"-5m", "", true},
		{"soon", "", true},
		{"61 * * * *", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSchedule(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedulerRunsJobWithTimeout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var runs atomic.Int32
	var hadDeadline atomic.Bool

	s, err := New("@every 1s", 5*time.Second, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		runs.Add(1)
		return errors.New("ignored")
	}, logger)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop(context.Background())

	assert.False(t, s.Next().IsZero())
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	assert.True(t, hadDeadline.Load())
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var running, maxRunning, runs atomic.Int32
	release := make(chan struct{})

	s, err := New("@every 1s", 0, func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		runs.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, logger)
	require.NoError(t, err)

	s.Start(context.Background())
	time.Sleep(2500 * time.Millisecond)
	close(release)
	s.Stop(context.Background())

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("whenever", 0, func(context.Context) error { return nil }, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
