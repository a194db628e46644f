package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/runtime"
)

// Search and listing limits
const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 100
	DefaultListLimit   = 100
	MaxListLimit       = 1000
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	services *runtime.Services
	logger   *slog.Logger
}

// NewSearchService creates a new SearchService.
// The embedding service and vector store are read from services on every call.
func NewSearchService(services *runtime.Services, logger *slog.Logger) driving.SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		services: services,
		logger:   logger,
	}
}

// Search embeds query and returns the caller's most similar points
func (s *searchService) Search(ctx context.Context, callerID, query string, limit int) ([]domain.ScoredPoint, error) {
	start := time.Now()

	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	limit = clampLimit(limit, DefaultSearchLimit, MaxSearchLimit)

	embedding := s.services.EmbeddingService()
	if embedding == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingFailed)
	}
	store := s.services.VectorStore()
	if store == nil {
		return nil, fmt.Errorf("%w: no vector store configured", domain.ErrStoreUnavailable)
	}

	vector, err := embedding.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed", "user_id", callerID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}

	results, err := store.Search(ctx, vector, limit, domain.UserFilter(callerID))
	if err != nil {
		s.logger.Error("vector search failed", "user_id", callerID, "error", err)
		return nil, err
	}

	s.logger.Debug("search completed",
		"user_id", callerID,
		"results", len(results),
		"took", time.Since(start),
	)
	return results, nil
}

// ListPoints returns the caller's stored points without vectors
func (s *searchService) ListPoints(ctx context.Context, callerID string, limit int) ([]domain.Point, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	limit = clampLimit(limit, DefaultListLimit, MaxListLimit)

	store := s.services.VectorStore()
	if store == nil {
		return nil, fmt.Errorf("%w: no vector store configured", domain.ErrStoreUnavailable)
	}

	points, err := store.ScrollByUser(ctx, callerID, limit)
	if err != nil {
		s.logger.Error("scroll failed", "user_id", callerID, "error", err)
		return nil, err
	}
	return points, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
