package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/safecheck/internal/models"
)

// Memory is a thread-safe in-process Store. Data is lost on exit.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]models.User
	byDevice map[string]string
	checkIns map[string][]models.CheckIn
	contacts map[string][]models.EmergencyContact
	logs     []models.NotificationLogEntry
	nextLog  int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]models.User),
		byDevice: make(map[string]string),
		checkIns: make(map[string][]models.CheckIn),
		contacts: make(map[string][]models.EmergencyContact),
	}
}

func (m *Memory) ListUserIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) LoadUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	checkIns := append([]models.CheckIn(nil), m.checkIns[userID]...)
	sort.SliceStable(checkIns, func(i, j int) bool {
		return checkIns[i].CheckedInAt.After(checkIns[j].CheckedInAt)
	})
	if len(checkIns) > RecentCheckInLimit {
		checkIns = checkIns[:RecentCheckInLimit]
	}
	u.CheckIns = checkIns

	contacts := append([]models.EmergencyContact(nil), m.contacts[userID]...)
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	u.Contacts = contacts
	return &u, nil
}

func (m *Memory) HasNotificationBetween(ctx context.Context, userID, contactID string, since, until time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasBetweenLocked(userID, contactID, since, until), nil
}

func (m *Memory) hasBetweenLocked(userID, contactID string, since, until time.Time) bool {
	for _, e := range m.logs {
		if e.UserID == userID && e.ContactID == contactID && !e.SentAt.Before(since) && !e.SentAt.After(until) {
			return true
		}
	}
	return false
}

func (m *Memory) AppendNotification(ctx context.Context, entry models.NotificationLogEntry, dedupSince time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	if m.hasBetweenLocked(entry.UserID, entry.ContactID, dedupSince, entry.SentAt) {
		return ErrDuplicateNotification
	}
	m.nextLog++
	entry.ID = m.nextLog
	m.logs = append(m.logs, entry)
	return nil
}

func (m *Memory) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.logs[:0]
	var purged int64
	for _, e := range m.logs {
		if e.SentAt.Before(before) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	m.logs = kept
	return purged, nil
}

// Notifications returns a copy of the ledger entries for one pair, oldest
// first.
func (m *Memory) Notifications(userID, contactID string) []models.NotificationLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.NotificationLogEntry
	for _, e := range m.logs {
		if e.UserID == userID && e.ContactID == contactID {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) RegisterUser(ctx context.Context, deviceID, displayName string) (*models.User, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byDevice[deviceID]; ok {
		u := m.users[id]
		if displayName != "" {
			u.DisplayName = displayName
			m.users[id] = u
		}
		return &u, nil
	}
	u := models.User{
		ID:          uuid.NewString(),
		DeviceID:    deviceID,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	m.users[u.ID] = u
	m.byDevice[deviceID] = u.ID
	return &u, nil
}

func (m *Memory) RecordCheckIn(ctx context.Context, userID string, at time.Time) (models.CheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return models.CheckIn{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	c := models.CheckIn{ID: uuid.NewString(), UserID: userID, CheckedInAt: at.UTC()}
	m.checkIns[userID] = append(m.checkIns[userID], c)
	return c, nil
}

func (m *Memory) AddContact(ctx context.Context, userID, name, email string) (models.EmergencyContact, error) {
	name, email, err := models.ValidateContact(name, email)
	if err != nil {
		return models.EmergencyContact{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return models.EmergencyContact{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	c := models.EmergencyContact{ID: uuid.NewString(), UserID: userID, Name: name, Email: email}
	m.contacts[userID] = append(m.contacts[userID], c)
	return c, nil
}

func (m *Memory) RemoveContact(ctx context.Context, userID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.contacts[userID]
	for i, c := range list {
		if c.ID == contactID {
			m.contacts[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
