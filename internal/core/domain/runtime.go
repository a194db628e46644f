package domain

import "sync"

// RuntimeConfig tracks which backends the process is running with and
// whether the shared embedding and vector store clients are usable.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SessionBackend string // "redis" or "postgres"
	VectorBackend  string // "qdrant", "pgvector" or "sqlite"

	embeddingAvailable   bool
	vectorStoreAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(sessionBackend, vectorBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SessionBackend: sessionBackend,
		VectorBackend:  vectorBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// VectorStoreAvailable returns whether the vector store is available
func (c *RuntimeConfig) VectorStoreAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vectorStoreAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetVectorStoreAvailable updates the vector store availability flag
func (c *RuntimeConfig) SetVectorStoreAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectorStoreAvailable = available
}

// CanIngest returns true when both the embedding provider and the vector store are set
func (c *RuntimeConfig) CanIngest() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable && c.vectorStoreAvailable
}
