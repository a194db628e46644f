package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure MockBreachChecker implements BreachChecker
var _ driven.BreachChecker = (*MockBreachChecker)(nil)

// MockBreachChecker reports passwords from a fixed set as breached
type MockBreachChecker struct {
	mu       sync.RWMutex
	breached map[string]bool
	err      error
}

// NewMockBreachChecker creates a checker that treats the given passwords as breached
func NewMockBreachChecker(breached ...string) *MockBreachChecker {
	m := &MockBreachChecker{breached: make(map[string]bool)}
	for _, p := range breached {
		m.breached[p] = true
	}
	return m
}

func (m *MockBreachChecker) IsBreached(ctx context.Context, password string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return false, m.err
	}
	return m.breached[password], nil
}

func (m *MockBreachChecker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
