package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/safecheck/internal/liveness"
	"github.com/albapepper/safecheck/internal/models"
)

// Dispatcher sends candidates through a bounded worker pool and records each
// confirmed send in the ledger.
type Dispatcher struct {
	sender      Sender
	ledger      *Ledger
	workers     int
	limiter     *rate.Limiter
	sendTimeout   time.Duration
	recordTimeout time.Duration
	logger        *slog.Logger
}

// DispatcherConfig sizes the worker pool and paces the email transport.
type DispatcherConfig struct {
	Workers       int
	RatePerSec    int
	SendTimeout   time.Duration
	RecordTimeout time.Duration
}

// NewDispatcher creates a dispatcher. Zero config values take defaults.
func NewDispatcher(sender Sender, ledger *Ledger, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = defaultDispatchWorkers
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultSendRatePerSec
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	return &Dispatcher{
		sender:        sender,
		ledger:        ledger,
		workers:       cfg.Workers,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		sendTimeout:   cfg.SendTimeout,
		recordTimeout: cfg.RecordTimeout,
		logger:        logger,
	}
}

// Dispatch processes candidates and returns one Result per candidate, in
// input order. Once ctx is done no new candidate starts; sends already in
// flight finish and get recorded.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time, candidates []Candidate) []Result {
	results := make([]Result, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	workers := d.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	ch := make(chan int, len(candidates))
	for i := range candidates {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				c := candidates[i]
				if ctx.Err() != nil || d.limiter.Wait(ctx) != nil {
					results[i] = resultFor(c, OutcomeSkipped)
					continue
				}
				results[i] = d.deliver(ctx, now, c)
			}
		}()
	}
	wg.Wait()
	return results
}

// deliver sends one email, then records it. The record only happens after
// the sender confirmed the send.
func (d *Dispatcher) deliver(ctx context.Context, now time.Time, c Candidate) Result {
	start := time.Now()

	// Detached from the run deadline: a started send is allowed to finish.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer cancel()

	email := Email{To: c.Contact.Email, ContactName: c.Contact.Name, UserName: c.UserName}
	if err := d.sender.Send(sendCtx, email); err != nil {
		sendErr := &EmailSendError{UserID: c.UserID, ContactID: c.Contact.ID, Email: c.Contact.Email, Err: err}
		d.logger.Warn("send failed, will retry next run",
			"user_id", c.UserID, "contact_id", c.Contact.ID, "error", err)
		r := resultFor(c, OutcomeSendFailed)
		r.Error = sendErr.Error()
		r.Duration = time.Since(start)
		return r
	}

	// A send that used up its timeout still gets a full window to record.
	recordCtx, cancelRecord := context.WithTimeout(context.WithoutCancel(ctx), d.recordTimeout)
	defer cancelRecord()
	if err := d.ledger.Record(recordCtx, c.UserID, c.Contact.ID, models.NotificationSent, now); err != nil {
		writeErr := &StoreWriteError{UserID: c.UserID, ContactID: c.Contact.ID, Err: err}
		d.logger.Error("notification sent but not recorded, contact may be notified again next run",
			"user_id", c.UserID, "contact_id", c.Contact.ID, "error", err)
		r := resultFor(c, OutcomeRecordFailed)
		r.Error = writeErr.Error()
		r.Duration = time.Since(start)
		return r
	}

	d.logger.Info("emergency contact notified",
		"user_id", c.UserID, "contact_id", c.Contact.ID, "inactive_for", formatElapsed(c.Elapsed))
	r := resultFor(c, OutcomeSent)
	r.Duration = time.Since(start)
	return r
}

func formatElapsed(d time.Duration) string {
	if d == liveness.Never {
		return "never checked in"
	}
	return d.Round(time.Minute).String()
}
