package state

import (
	"sync"
	"time"
)

// Manager manages session lifecycle state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	phase     Phase

	createdAt    time.Time
	lastActivity time.Time

	now func() time.Time
}

// New creates a new state manager in the active phase.
func New(sessionID string) *Manager {
	return newWithClock(sessionID, time.Now)
}

func newWithClock(sessionID string, now func() time.Time) *Manager {
	t := now()
	return &Manager{
		sessionID:    sessionID,
		phase:        PhaseActive,
		createdAt:    t,
		lastActivity: t,
		now:          now,
	}
}

// SessionID returns the session ID.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Phase returns the current phase.
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// IsActive returns true if the session accepts operations.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase == PhaseActive
}

// BeginClose moves an active session to closing.
// Returns false if the session was already closing or closed.
func (m *Manager) BeginClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseActive {
		return false
	}
	m.phase = PhaseClosing
	return true
}

// MarkClosed moves the session to closed.
func (m *Manager) MarkClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseClosed
}

// Touch records client activity.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.now()
}

// CreatedAt returns when the session was created.
func (m *Manager) CreatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createdAt
}

// LastActivity returns the time of the last recorded activity.
func (m *Manager) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivity
}

// IdleFor returns how long the session has been idle at t.
func (m *Manager) IdleFor(t time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if d := t.Sub(m.lastActivity); d > 0 {
		return d
	}
	return 0
}
