package mocks

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure MockVectorStore implements VectorStore
var _ driven.VectorStore = (*MockVectorStore)(nil)

// MockVectorStore is an in-memory VectorStore for testing.
// Points are kept in insertion order; search is brute-force cosine.
type MockVectorStore struct {
	mu          sync.RWMutex
	points      []domain.Point
	vectorSize  int
	creates     int
	failAfter   int // fail upserts once this many have succeeded; -1 disables
	searchErr   error
	healthErr   error
	lastFilter  *domain.PointFilter
	searchCalls int
}

// NewMockVectorStore creates a new MockVectorStore
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{failAfter: -1}
}

func (m *MockVectorStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vectorSize != 0 {
		return nil
	}
	m.vectorSize = vectorSize
	m.creates++
	return nil
}

func (m *MockVectorStore) Upsert(ctx context.Context, point domain.Point) error {
	if point.ID == "" {
		return fmt.Errorf("%w: point id is required", domain.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && len(m.points) >= m.failAfter {
		return fmt.Errorf("upsert %s: %w", point.ID, domain.ErrStoreUnavailable)
	}
	m.points = append(m.points, point)
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, vector []float32, limit int, filter *domain.PointFilter) ([]domain.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastFilter = filter
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	var results []domain.ScoredPoint
	for _, p := range m.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		results = append(results, domain.ScoredPoint{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockVectorStore) ScrollByUser(ctx context.Context, userID string, limit int) ([]domain.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	var result []domain.Point
	for _, p := range m.points {
		if p.Payload.UserID != userID {
			continue
		}
		result = append(result, domain.Point{ID: p.ID, Payload: p.Payload})
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockVectorStore) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthErr
}

func (m *MockVectorStore) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Helper methods for testing

// SetFailAfter makes upserts fail once n points have been stored
func (m *MockVectorStore) SetFailAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
}

func (m *MockVectorStore) SetSearchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
}

func (m *MockVectorStore) SetHealthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthErr = err
}

// Points returns a copy of every stored point in insertion order
func (m *MockVectorStore) Points() []domain.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Point, len(m.points))
	copy(out, m.points)
	return out
}

// CreateCount returns how many times the collection was actually created
func (m *MockVectorStore) CreateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creates
}

// LastFilter returns the filter passed to the most recent Search
func (m *MockVectorStore) LastFilter() *domain.PointFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastFilter
}
