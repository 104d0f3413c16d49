// Package liveness maps a user's check-in history to a status and elapsed
// time metrics. Everything here is pure: callers supply now.
package liveness

import (
	"math"
	"time"

	"github.com/albapepper/safecheck/internal/models"
)

// Status is the derived liveness state of a user.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// UI-facing thresholds. Escalation to contacts uses its own threshold in
// package notifications.
const (
	WarningThreshold = 24 * time.Hour
	DangerThreshold  = 48 * time.Hour
)

// Never is the elapsed duration reported for users who never checked in.
const Never = time.Duration(math.MaxInt64)

// LastCheckIn returns the most recent check-in by timestamp. The slice order
// is not relied on.
func LastCheckIn(checkIns []models.CheckIn) (models.CheckIn, bool) {
	if len(checkIns) == 0 {
		return models.CheckIn{}, false
	}
	last := checkIns[0]
	for _, c := range checkIns[1:] {
		if c.CheckedInAt.After(last.CheckedInAt) {
			last = c
		}
	}
	return last, true
}

// ElapsedSince returns now minus the last check-in, or Never.
func ElapsedSince(checkIns []models.CheckIn, now time.Time) time.Duration {
	last, ok := LastCheckIn(checkIns)
	if !ok {
		return Never
	}
	return now.Sub(last.CheckedInAt)
}

// ElapsedDays is ElapsedSince in fractional days; +Inf when never checked in.
func ElapsedDays(checkIns []models.CheckIn, now time.Time) float64 {
	elapsed := ElapsedSince(checkIns, now)
	if elapsed == Never {
		return math.Inf(1)
	}
	return elapsed.Hours() / 24
}

// StatusAt classifies the check-in history at now.
func StatusAt(checkIns []models.CheckIn, now time.Time) Status {
	return classify(ElapsedSince(checkIns, now))
}

func classify(elapsed time.Duration) Status {
	switch {
	case elapsed < WarningThreshold:
		return StatusSafe
	case elapsed < DangerThreshold:
		return StatusWarning
	default:
		return StatusDanger
	}
}

// Report is the full liveness picture for one user.
type Report struct {
	Status         Status
	ElapsedDays    float64
	LastCheckIn    *models.CheckIn
	CheckedInToday bool
	// TimeRemaining is how long until the user reaches danger; zero once
	// there or when the user never checked in.
	TimeRemaining time.Duration
}

// Evaluate builds a Report for the user at now. "Today" is the UTC calendar
// day of now.
func Evaluate(user *models.User, now time.Time) Report {
	elapsed := ElapsedSince(user.CheckIns, now)
	r := Report{
		Status:      classify(elapsed),
		ElapsedDays: ElapsedDays(user.CheckIns, now),
	}
	if last, ok := LastCheckIn(user.CheckIns); ok {
		r.LastCheckIn = &last
		r.CheckedInToday = sameUTCDay(last.CheckedInAt, now)
		if elapsed < DangerThreshold {
			r.TimeRemaining = DangerThreshold - elapsed
		}
	}
	return r
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
