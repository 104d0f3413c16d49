// Package scheduler triggers the inactivity check on a cron schedule inside
// a long-running process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule normalizes a schedule string to a cron spec. Accepted forms:
//   - cron expressions and descriptors: "0 * * * *", "@hourly", "@every 30m"
//   - Go durations: "30m", "1h30m" (converted to "@every")
func ParseSchedule(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("schedule required")
	}

	spec := s
	if !strings.ContainsAny(s, " \t") && !strings.HasPrefix(s, "@") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return "", fmt.Errorf("invalid schedule %q (use cron like '0 * * * *', '@hourly', or a duration like '30m')", raw)
		}
		if d <= 0 {
			return "", fmt.Errorf("interval must be > 0")
		}
		spec = "@every " + d.String()
	}

	if _, err := parser.Parse(spec); err != nil {
		return "", fmt.Errorf("parse schedule %q: %w", raw, err)
	}
	return spec, nil
}

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a single job on a cron schedule. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	c       *cron.Cron
	spec    string
	timeout time.Duration
	job     Job
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. timeout bounds each run; zero means no bound.
func New(schedule string, timeout time.Duration, job Job, logger *slog.Logger) (*Scheduler, error) {
	spec, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		spec:    spec,
		timeout: timeout,
		job:     job,
		logger:  logger,
	}
	if _, err := s.c.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("add cron job: %w", err)
	}
	return s, nil
}

// Start begins triggering. Runs inherit ctx; cancelling it aborts a run in
// progress the same way a timeout does.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.c.Start()
	s.logger.Info("Scheduler started", "schedule", s.spec, "next", s.Next())
}

// Stop stops triggering and waits for a run in progress, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		if s.cancel != nil {
			s.cancel()
		}
		<-done
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Scheduler stopped")
}

// Next returns the next activation time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runOnce() {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled run failed", "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return
	}
	s.logger.Debug("Scheduled run finished", "duration", time.Since(start).Round(time.Millisecond))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
