package session

import (
	"context"
	"sync"
	"time"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
)

type memoryEntry struct {
	session   *copilot.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. A session expires after it
// has not been saved for ttl; a zero ttl never expires.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the session
func (m *MemoryStore) Get(_ context.Context, id string) (*copilot.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(entry) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return clone(entry.session), nil
}

// Save stores a copy of the session and refreshes its expiry
func (m *MemoryStore) Save(_ context.Context, s *copilot.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	entry := memoryEntry{session: clone(s)}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.sessions[s.ID] = entry
	return nil
}

// Delete removes the session; unknown ids are ignored
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of sessions held, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}

// sweep drops expired sessions. Called with mu held.
func (m *MemoryStore) sweep() {
	for id, entry := range m.sessions {
		if m.expired(entry) {
			delete(m.sessions, id)
		}
	}
}
