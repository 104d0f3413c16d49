// Package models holds the persisted entities shared by the store, the
// liveness model and the notification job.
package models

import (
	"errors"
	"strings"
	"time"
)

// Notification log statuses.
const (
	NotificationSent = "sent"
)

var (
	ErrContactNameRequired  = errors.New("contact name is required")
	ErrContactEmailRequired = errors.New("contact email is required")
	ErrContactEmailInvalid  = errors.New("contact email must contain '@'")
)

// User is a registered device owner together with its check-in history and
// emergency contacts. CheckIns may hold only the most recent records.
type User struct {
	ID          string
	DeviceID    string
	DisplayName string
	CreatedAt   time.Time
	CheckIns    []CheckIn
	Contacts    []EmergencyContact
}

// DisplayIdentifier is the name used to refer to the user in notifications.
func (u *User) DisplayIdentifier() string {
	switch {
	case strings.TrimSpace(u.DisplayName) != "":
		return u.DisplayName
	case u.DeviceID != "":
		return u.DeviceID
	default:
		return u.ID
	}
}

// CheckIn is an immutable liveness confirmation.
type CheckIn struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// EmergencyContact is notified by email once the user has been inactive
// past the escalation threshold.
type EmergencyContact struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// NotificationLogEntry records one delivered notification. Entries are
// append-only.
type NotificationLogEntry struct {
	ID        int64
	UserID    string
	ContactID string
	SentAt    time.Time
	Status    string
}

// ValidateContact trims name and email and checks them. Email validation is
// syntactic only.
func ValidateContact(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return "", "", ErrContactNameRequired
	}
	if email == "" {
		return "", "", ErrContactEmailRequired
	}
	if !strings.Contains(email, "@") {
		return "", "", ErrContactEmailInvalid
	}
	return name, email, nil
}
