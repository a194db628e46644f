package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// VectorStore owns the single vector collection and the points written to it.
// Every failure returned wraps domain.ErrStoreUnavailable; nothing is retried.
type VectorStore interface {
	// EnsureCollection creates the collection with cosine distance if it does
	// not exist. An existing collection is never altered, whatever its size.
	EnsureCollection(ctx context.Context, vectorSize int) error

	// Upsert writes one point. Callers generate a fresh ID per point, so this
	// is always an insert in practice.
	Upsert(ctx context.Context, point domain.Point) error

	// Search returns the limit nearest points by cosine similarity, highest
	// score first. A nil filter searches across all owners.
	Search(ctx context.Context, vector []float32, limit int, filter *domain.PointFilter) ([]domain.ScoredPoint, error)

	// ScrollByUser returns up to limit points owned by userID, without vectors,
	// in store order.
	ScrollByUser(ctx context.Context, userID string, limit int) ([]domain.Point, error)

	// HealthCheck verifies the store is reachable
	HealthCheck(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
