// Package notifications detects users who stopped checking in and emails
// their emergency contacts.
//
// Pipeline: scan users → pick contacts not notified within the dedup window
// → send email → record in the ledger. A Runner executes one cycle; an
// external schedule (cron, HTTP trigger, CLI) decides when.
package notifications

import (
	"time"

	"github.com/albapepper/safecheck/internal/models"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// InactivityThreshold is independent of liveness.WarningThreshold.
	InactivityThreshold = 48 * time.Hour
	DedupWindow         = 24 * time.Hour

	defaultDispatchWorkers = 4
	defaultScanWorkers     = 8
	defaultSendRatePerSec  = 5
	defaultSendTimeout     = 30 * time.Second
	defaultRecordTimeout   = 10 * time.Second
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Candidate is a (user, contact) pair eligible for notification in one run.
type Candidate struct {
	UserID   string
	UserName string
	Contact  models.EmergencyContact
	Elapsed  time.Duration // liveness.Never when the user never checked in
}

// Outcome is the per-candidate result of a run.
type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeSendFailed   Outcome = "send_failed"
	OutcomeRecordFailed Outcome = "record_failed" // email went out, ledger append failed
	OutcomeSkipped      Outcome = "skipped"       // run deadline hit before start
	OutcomeCandidate    Outcome = "candidate"     // dry run
)

// Result tracks the outcome of one candidate.
type Result struct {
	UserID       string        `json:"user_id"`
	ContactID    string        `json:"contact_id"`
	ContactEmail string        `json:"contact_email"`
	Outcome      Outcome       `json:"outcome"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"-"`
}

func resultFor(c Candidate, outcome Outcome) Result {
	return Result{
		UserID:       c.UserID,
		ContactID:    c.Contact.ID,
		ContactEmail: c.Contact.Email,
		Outcome:      outcome,
	}
}
