package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// IngestService turns caller text and files into stored vector points
type IngestService interface {
	// Ingest extracts, chunks, embeds and stores the request content for callerID.
	// Errors: domain.ErrNoInput, domain.ErrExtractionFailed, domain.ErrEmbeddingFailed,
	// domain.ErrStoreUnavailable (possibly as *domain.PartialWriteError).
	Ingest(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error)
}
