package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure MockSessionStore implements SessionStore
var _ driven.SessionStore = (*MockSessionStore)(nil)

// MockSessionStore keeps sessions in one map; lookups by token scan it.
// Copies are stored so callers cannot mutate saved state.
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]domain.Session)}
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return m.find(func(s domain.Session) bool { return s.ID == id })
}

func (m *MockSessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return m.find(func(s domain.Session) bool { return refreshToken != "" && s.RefreshToken == refreshToken })
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	m.remove(func(s domain.Session) bool { return s.ID == id })
	return nil
}

func (m *MockSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	m.remove(func(s domain.Session) bool { return s.UserID == userID })
	return nil
}

// ForUser returns copies of the stored sessions of one user
func (m *MockSessionStore) ForUser(userID string) []domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of stored sessions
func (m *MockSessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MockSessionStore) find(match func(domain.Session) bool) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if match(s) {
			return &s, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionStore) remove(match func(domain.Session) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if match(s) {
			delete(m.sessions, id)
		}
	}
}
