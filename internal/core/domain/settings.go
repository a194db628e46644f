package domain

import "time"

// AIProvider identifies the embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderAzure  AIProvider = "azure"
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider" yaml:"provider" toml:"provider"`
	Model    string     `json:"model" yaml:"model" toml:"model"`
	APIKey   string     `json:"-" yaml:"api_key" toml:"api_key"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty" yaml:"base_url" toml:"base_url"`

	// Azure only
	Deployment string `json:"deployment,omitempty" yaml:"deployment" toml:"deployment"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version" toml:"api_version"`

	// Dimensions overrides the model table when non-zero
	Dimensions int `json:"dimensions,omitempty" yaml:"dimensions" toml:"dimensions"`

	Timeout           time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" || e.APIKey == "" {
		return false
	}
	if e.Provider == AIProviderAzure {
		return e.BaseURL != "" && e.Deployment != ""
	}
	return true
}

// IsValid reports whether the provider is known
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAzure:
		return true
	}
	return false
}
