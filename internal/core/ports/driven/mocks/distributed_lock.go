package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock is an in-process lock. Set AcquireFn to script
// contention or backend failures.
type MockDistributedLock struct {
	mu       sync.Mutex
	held     map[string]bool
	acquires int
	releases int

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	PingErr   error
}

// NewMockDistributedLock creates a new mock distributed lock.
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{held: make(map[string]bool)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AcquireFn != nil {
		ok, err := m.AcquireFn(name, ttl)
		if ok && err == nil {
			m.held[name] = true
			m.acquires++
		}
		return ok, err
	}

	if m.held[name] {
		return false, nil
	}
	m.held[name] = true
	m.acquires++
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[name] {
		m.releases++
	}
	delete(m.held, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held[name] {
		return fmt.Errorf("%w: lock %s not held", domain.ErrNotFound, name)
	}
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	return m.PingErr
}

// Held reports whether name is currently taken
func (m *MockDistributedLock) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}

// Counts returns how many successful acquires and releases happened
func (m *MockDistributedLock) Counts() (acquires, releases int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquires, m.releases
}
