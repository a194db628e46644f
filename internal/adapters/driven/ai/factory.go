package ai

import (
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Factory creates embedding services based on configuration
type Factory struct{}

// NewFactory creates a new embedding service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings.
// Unconfigured settings yield a nil service and no error.
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	opts := []Option{
		WithTimeout(settings.Timeout),
		WithRateLimit(settings.RequestsPerSecond),
		WithDimensions(settings.Dimensions),
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err := NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, opts...)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAzure:
		svc, err := NewAzureOpenAIEmbedding(settings.BaseURL, settings.APIKey, settings.Deployment, settings.APIVersion, settings.Model, opts...)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
