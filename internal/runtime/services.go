package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Services holds the process-wide embedding client and vector store.
// Both are built once at startup and may be swapped while running.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	embeddingService driven.EmbeddingService
	vectorStore      driven.VectorStore

	collectionLock driven.DistributedLock
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// VectorStore returns the current vector store (may be nil)
func (s *Services) VectorStore() driven.VectorStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectorStore
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetVectorStore updates the vector store.
// Closes the old store if present. Updates config flags.
func (s *Services) SetVectorStore(store driven.VectorStore) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vectorStore != nil && s.vectorStore != store {
		_ = s.vectorStore.Close()
	}

	s.vectorStore = store
	s.config.SetVectorStoreAvailable(store != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.embeddingService != nil {
		errs = append(errs, s.embeddingService.Close())
		s.embeddingService = nil
	}
	if s.vectorStore != nil {
		errs = append(errs, s.vectorStore.Close())
		s.vectorStore = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetVectorStoreAvailable(false)

	return errors.Join(errs...)
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetVectorStore checks the store is reachable and its collection
// exists (creating it with vectorSize dimensions if not) before setting it.
func (s *Services) ValidateAndSetVectorStore(ctx context.Context, store driven.VectorStore, vectorSize int) error {
	if store == nil {
		s.SetVectorStore(nil)
		return nil
	}

	if err := store.HealthCheck(ctx); err != nil {
		_ = store.Close()
		return err
	}
	err := withLock(ctx, s.lock(), collectionLockName, func() error {
		return store.EnsureCollection(ctx, vectorSize)
	})
	if err != nil {
		_ = store.Close()
		return err
	}

	s.SetVectorStore(store)
	return nil
}

// HealthStatus reports per-component health. A nil error means healthy;
// a missing component reports domain.ErrServiceUnavailable.
func (s *Services) HealthStatus(ctx context.Context) map[string]error {
	embedding := s.EmbeddingService()
	store := s.VectorStore()

	status := map[string]error{
		"embedding":    domain.ErrServiceUnavailable,
		"vector_store": domain.ErrServiceUnavailable,
	}
	if embedding != nil {
		status["embedding"] = embedding.HealthCheck(ctx)
	}
	if store != nil {
		status["vector_store"] = store.HealthCheck(ctx)
	}
	return status
}
