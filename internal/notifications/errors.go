package notifications

import (
	"errors"
	"fmt"
)

// ErrFutureNow rejects a real run evaluated at a time after the wall clock.
// Its ledger entries would be dated in the future.
var ErrFutureNow = errors.New("now is in the future; only dry runs may evaluate a future time")

// StoreReadError is a failed read for one user (or one of its contacts).
// The user is skipped for this run; the scan continues.
type StoreReadError struct {
	UserID    string
	ContactID string
	Err       error
}

func (e *StoreReadError) Error() string {
	if e.ContactID != "" {
		return fmt.Sprintf("read ledger for user %s contact %s: %v", e.UserID, e.ContactID, e.Err)
	}
	return fmt.Sprintf("read user %s: %v", e.UserID, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError is a ledger append that failed after a successful send.
// The next run may notify the contact again.
type StoreWriteError struct {
	UserID    string
	ContactID string
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("record notification for user %s contact %s: %v", e.UserID, e.ContactID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// EmailSendError is a failed send. Nothing is recorded, so the candidate is
// retried on the next run.
type EmailSendError struct {
	UserID    string
	ContactID string
	Email     string
	Err       error
}

func (e *EmailSendError) Error() string {
	return fmt.Sprintf("send to %s (user %s contact %s): %v", e.Email, e.UserID, e.ContactID, e.Err)
}

func (e *EmailSendError) Unwrap() error { return e.Err }

// ConfigurationError aborts a run before any work starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}
