package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/safecheck/internal/store"
)

// RunnerConfig holds the defaults for every run.
type RunnerConfig struct {
	DispatchWorkers int
	ScanWorkers     int
	SendRatePerSec  int
	SendTimeout     time.Duration
	Timeout         time.Duration
}

// Options override RunnerConfig for a single run.
type Options struct {
	Now     time.Time // zero means the wall clock; real runs may not be ahead of it
	Workers int       // dispatch workers; zero keeps the runner default
	Timeout time.Duration
	DryRun  bool
}

// Summary tracks the outcome of one run.
type Summary struct {
	StartedAt      time.Time     `json:"started_at"`
	Now            time.Time     `json:"now"`
	UsersScanned   int           `json:"users_scanned"`
	UsersSkipped   int           `json:"users_skipped"`
	UsersEscalated int           `json:"users_escalated"`
	Processed      int           `json:"processed"`
	Sent           int           `json:"sent"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	RecordFailures int           `json:"record_failures"`
	DryRun         bool          `json:"dry_run"`
	Partial        bool          `json:"partial"`
	Duration       time.Duration `json:"-"`
	DurationMS     int64         `json:"duration_ms"`
	Errors         []string      `json:"errors,omitempty"`
	Results        []Result      `json:"results"`
}

// Summary returns a human-readable summary.
func (s *Summary) Summary() string {
	return fmt.Sprintf(
		"users=%d skipped_users=%d escalated=%d processed=%d sent=%d failed=%d skipped=%d record_failures=%d partial=%v dry_run=%v dur=%s",
		s.UsersScanned, s.UsersSkipped, s.UsersEscalated, s.Processed,
		s.Sent, s.Failed, s.Skipped, s.RecordFailures, s.Partial, s.DryRun,
		s.Duration.Round(time.Millisecond))
}

// OK reports whether every user was scanned and every candidate was sent
// and recorded.
func (s *Summary) OK() bool {
	return !s.Partial && s.UsersSkipped == 0 && s.Failed == 0 &&
		s.Skipped == 0 && s.RecordFailures == 0 && len(s.Errors) == 0
}

// Status is "ok" or "degraded".
func (s *Summary) Status() string {
	if s.OK() {
		return "ok"
	}
	return "degraded"
}

// Runner executes one inactivity check: scan, then dispatch.
type Runner struct {
	store  store.Store
	sender Sender
	cfg    RunnerConfig
	logger *slog.Logger
	clock  func() time.Time
}

// NewRunner creates a runner. Configuration is checked on each Run.
func NewRunner(s store.Store, sender Sender, cfg RunnerConfig, logger *slog.Logger) *Runner {
	return &Runner{store: s, sender: sender, cfg: cfg, logger: logger, clock: time.Now}
}

// Run performs one cycle. The only returned errors are a ConfigurationError
// or ErrFutureNow (nothing was done) and a failure to list users; every
// per-user and per-candidate failure is reported in the Summary instead.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := r.validate(opts.DryRun); err != nil {
		recordAbortedRun()
		return nil, err
	}

	start := time.Now()
	wall := r.clock()
	now := opts.Now
	if now.IsZero() {
		now = wall
	}
	if !opts.DryRun && now.After(wall) {
		recordAbortedRun()
		return nil, fmt.Errorf("%w (now=%s, clock=%s)", ErrFutureNow,
			now.UTC().Format(time.RFC3339), wall.UTC().Format(time.RFC3339))
	}
	now = now.UTC()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sum := &Summary{StartedAt: start.UTC(), Now: now, DryRun: opts.DryRun}
	r.logger.Info("inactivity check started", "now", now, "dry_run", opts.DryRun)

	ledger := NewLedger(r.store, r.logger)
	scan, err := NewScanner(r.store, ledger, r.cfg.ScanWorkers, r.logger).Scan(ctx, now)
	if err != nil {
		recordAbortedRun()
		return nil, fmt.Errorf("scan: %w", err)
	}

	sum.UsersScanned = scan.UsersScanned
	sum.UsersSkipped = scan.UsersFailed
	sum.UsersEscalated = scan.UsersEscalated
	sum.Partial = scan.Partial
	for _, e := range scan.Errors {
		sum.Errors = append(sum.Errors, e.Error())
	}

	if opts.DryRun {
		for _, c := range scan.Candidates {
			sum.Results = append(sum.Results, resultFor(c, OutcomeCandidate))
		}
	} else {
		workers := opts.Workers
		if workers <= 0 {
			workers = r.cfg.DispatchWorkers
		}
		d := NewDispatcher(r.sender, ledger, DispatcherConfig{
			Workers:     workers,
			RatePerSec:  r.cfg.SendRatePerSec,
			SendTimeout: r.cfg.SendTimeout,
		}, r.logger)
		sum.Results = d.Dispatch(ctx, now, scan.Candidates)
	}

	for _, res := range sum.Results {
		switch res.Outcome {
		case OutcomeSent:
			sum.Processed++
			sum.Sent++
		case OutcomeRecordFailed:
			// The email went out; only the ledger entry is missing.
			sum.Processed++
			sum.Sent++
			sum.RecordFailures++
			sum.Errors = append(sum.Errors, res.Error)
		case OutcomeSendFailed:
			sum.Processed++
			sum.Failed++
			sum.Errors = append(sum.Errors, res.Error)
		case OutcomeSkipped:
			sum.Skipped++
		case OutcomeCandidate:
			sum.Processed++
		}
	}
	if sum.Skipped > 0 {
		sum.Partial = true
	}

	sum.Duration = time.Since(start)
	sum.DurationMS = sum.Duration.Milliseconds()
	recordRun(sum)

	if sum.OK() {
		r.logger.Info("inactivity check finished", "summary", sum.Summary())
	} else {
		r.logger.Warn("inactivity check finished with errors",
			"summary", sum.Summary(), "errors", len(sum.Errors))
	}
	return sum, nil
}

func (r *Runner) validate(dryRun bool) error {
	if r.store == nil {
		return &ConfigurationError{Reason: "no store configured"}
	}
	if dryRun {
		return nil
	}
	if r.sender == nil {
		return &ConfigurationError{Reason: "no email sender configured"}
	}
	if v, ok := r.sender.(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
