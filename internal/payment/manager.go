package payment

import (
	"errors"
	"sync"
)

var (
	ErrSessionNotFound = errors.New("payment session not found")
)

// Manager holds at most one active payment session per Telegram user.
// Creating a session for a user who already has one cancels and replaces
// the old session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Put installs a session for a user, cancelling any previous one.
func (m *Manager) Put(userID int64, session *Session) {
	m.mu.Lock()
	old := m.sessions[userID]
	m.sessions[userID] = session
	m.mu.Unlock()

	if old != nil {
		old.Reset()
	}
}

// Get returns the user's active session.
func (m *Manager) Get(userID int64) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[userID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove cancels and discards the user's session, if any.
func (m *Manager) Remove(userID int64) {
	m.mu.Lock()
	session := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if session != nil {
		session.Reset()
	}
}
