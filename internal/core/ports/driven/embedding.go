package driven

import "context"

// EmbeddingService turns text into vectors. One Embed call is one provider
// request; the returned slice is index-aligned with texts.
type EmbeddingService interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions is the vector length the service is expected to return
	Dimensions() int
	Model() string

	HealthCheck(ctx context.Context) error
	Close() error
}
