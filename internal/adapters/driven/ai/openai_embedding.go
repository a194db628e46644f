package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure OpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

// DefaultOpenAIBaseURL is used when no base URL is configured
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "text-embedding-3-small"

// Model dimensions for OpenAI embedding models
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"all-MiniLM-L6-v2":       384,
}

// OpenAIEmbedding implements EmbeddingService against any
// OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedding struct {
	*embeddingClient
	baseURL    string
	dimensions int
}

// NewOpenAIEmbedding creates a new OpenAI embedding service
func NewOpenAIEmbedding(apiKey, model, baseURL string, opts ...Option) (*OpenAIEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	o := buildOptions(opts)
	dimensions := dimensionsFor(model, o.dimensions)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+apiKey)

	return &OpenAIEmbedding{
		embeddingClient: &embeddingClient{
			url:        baseURL + "/embeddings",
			model:      model,
			headers:    headers,
			client:     o.httpClient,
			limiter:    o.limiter,
			dimensions: o.dimensions,
		},
		baseURL:    baseURL,
		dimensions: dimensions,
	}, nil
}

// Embed generates embeddings for multiple texts in one request
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts)
}

// EmbedQuery generates an embedding for a search query
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.embedQuery(ctx, query)
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service
func (e *OpenAIEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func dimensionsFor(model string, override int) int {
	if override > 0 {
		return override
	}
	if d, ok := openAIModelDimensions[model]; ok {
		return d
	}
	// Default to 1536 for unknown models
	return 1536
}
