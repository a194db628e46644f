package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// SearchService retrieves a caller's stored chunks
type SearchService interface {
	// Search embeds query and returns the caller's most similar points
	Search(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error)

	// ListPoints returns the caller's points without vectors
	ListPoints(ctx context.Context, callerID string, limit int) ([]domain.Point, error)
}
