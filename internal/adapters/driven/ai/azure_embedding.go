package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure AzureOpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*AzureOpenAIEmbedding)(nil)

// DefaultAzureAPIVersion is the Azure OpenAI REST API version used when none is set
const DefaultAzureAPIVersion = "2024-12-01-preview"

// AzureOpenAIEmbedding implements EmbeddingService against an Azure OpenAI
// deployment. The deployment selects the model, so none is sent in the body.
type AzureOpenAIEmbedding struct {
	*embeddingClient
	deployment string
	dimensions int
}

// NewAzureOpenAIEmbedding creates an Azure OpenAI embedding service.
// model is only used to look up the vector dimension.
func NewAzureOpenAIEmbedding(endpoint, apiKey, deployment, apiVersion, model string, opts ...Option) (*AzureOpenAIEmbedding, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("Azure OpenAI endpoint is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Azure OpenAI API key is required")
	}
	if deployment == "" {
		return nil, fmt.Errorf("Azure OpenAI deployment is required")
	}
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}
	if model == "" {
		model = deployment
	}

	o := buildOptions(opts)

	u := fmt.Sprintf("%s/openai/deployments/%s/embeddings?%s",
		strings.TrimRight(endpoint, "/"),
		url.PathEscape(deployment),
		url.Values{"api-version": {apiVersion}}.Encode(),
	)

	headers := http.Header{}
	headers.Set("api-key", apiKey)

	return &AzureOpenAIEmbedding{
		embeddingClient: &embeddingClient{
			url:        u,
			headers:    headers,
			client:     o.httpClient,
			limiter:    o.limiter,
			dimensions: o.dimensions,
		},
		deployment: deployment,
		dimensions: dimensionsFor(model, o.dimensions),
	}, nil
}

// Embed generates embeddings for multiple texts in one request
func (e *AzureOpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts)
}

// EmbedQuery generates an embedding for a search query
func (e *AzureOpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.embedQuery(ctx, query)
}

// Dimensions returns the embedding dimension size
func (e *AzureOpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the deployment name
func (e *AzureOpenAIEmbedding) Model() string {
	return e.deployment
}

// HealthCheck verifies the deployment answers
func (e *AzureOpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases idle connections
func (e *AzureOpenAIEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
