package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/safecheck/internal/liveness"
	"github.com/albapepper/safecheck/internal/store"
)

// Scanner finds candidates: contacts of users inactive past
// InactivityThreshold that were not notified within DedupWindow.
type Scanner struct {
	store   store.Store
	ledger  *Ledger
	workers int
	logger  *slog.Logger
}

// NewScanner creates a scanner that loads up to workers users concurrently.
func NewScanner(s store.Store, ledger *Ledger, workers int, logger *slog.Logger) *Scanner {
	if workers < 1 {
		workers = defaultScanWorkers
	}
	return &Scanner{store: s, ledger: ledger, workers: workers, logger: logger}
}

// ScanResult is the output of one scan.
type ScanResult struct {
	Candidates     []Candidate
	UsersScanned   int
	UsersFailed    int
	UsersEscalated int
	Errors         []error
	// Partial is set when ctx ended before every user was scanned.
	Partial bool
}

type userScan struct {
	scanned    bool
	failed     bool
	escalated  bool
	candidates []Candidate
	errs       []error
}

// Scan evaluates every user at now. Failures are isolated per user; only a
// failure to list users is returned as an error.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("list users: %w", err)
	}

	per := make([]userScan, len(ids))
	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			per[i] = s.scanUser(ctx, id, now)
			return nil
		})
	}
	_ = g.Wait()

	var res ScanResult
	for _, u := range per {
		if !u.scanned {
			res.Partial = true
			continue
		}
		res.UsersScanned++
		if u.failed {
			res.UsersFailed++
		}
		if u.escalated {
			res.UsersEscalated++
		}
		res.Candidates = append(res.Candidates, u.candidates...)
		res.Errors = append(res.Errors, u.errs...)
	}

	sort.Slice(res.Candidates, func(i, j int) bool {
		a, b := res.Candidates[i], res.Candidates[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.Contact.ID < b.Contact.ID
	})
	return res, nil
}

func (s *Scanner) scanUser(ctx context.Context, userID string, now time.Time) userScan {
	user, err := s.store.LoadUser(ctx, userID)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return userScan{}
		}
		s.logger.Warn("skipping user: load failed", "user_id", userID, "error", err)
		return userScan{
			scanned: true,
			failed:  true,
			errs:    []error{&StoreReadError{UserID: userID, Err: err}},
		}
	}

	out := userScan{scanned: true}
	elapsed := liveness.ElapsedSince(user.CheckIns, now)
	if elapsed < InactivityThreshold {
		return out
	}
	out.escalated = true

	since := now.Add(-DedupWindow)
	for _, contact := range user.Contacts {
		recent, err := s.ledger.HasRecentNotification(ctx, user.ID, contact.ID, since)
		if err != nil {
			s.logger.Warn("skipping contact: ledger read failed",
				"user_id", user.ID, "contact_id", contact.ID, "error", err)
			out.errs = append(out.errs, &StoreReadError{UserID: user.ID, ContactID: contact.ID, Err: err})
			continue
		}
		if recent {
			continue
		}
		out.candidates = append(out.candidates, Candidate{
			UserID:   user.ID,
			UserName: user.DisplayIdentifier(),
			Contact:  contact,
			Elapsed:  elapsed,
		})
	}
	return out
}
