// Package config loads process settings.
//
// Precedence, lowest first: built-in defaults, an optional YAML or TOML file
// named by CONFIG_FILE, then environment variables (including any loaded
// from a .env file, which never overrides variables already set).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// Vector store backends
const (
	VectorStoreQdrant   = "qdrant"
	VectorStorePgvector = "pgvector"
	VectorStoreSQLite   = "sqlite"
)

// Tokenizer kinds, mirrored from the tokenizer adapter
const (
	TokenizerTiktoken   = "tiktoken"
	TokenizerWhitespace = "whitespace"
)

// Mode selects which settings Validate insists on
type Mode int

const (
	// ModeServe runs the HTTP API and needs auth settings
	ModeServe Mode = iota
	// ModeCLI runs one-shot commands against the stores directly
	ModeCLI
)

// Config is the full process configuration
type Config struct {
	Port       int           `yaml:"port" toml:"port"`
	JWTSecret  string        `yaml:"jwt_secret" toml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl" toml:"session_ttl"`

	DatabaseURL string   `yaml:"database_url" toml:"database_url"`
	DB          DBConfig `yaml:"db" toml:"db"`
	RedisURL    string   `yaml:"redis_url" toml:"redis_url"`

	VectorStore string       `yaml:"vector_store" toml:"vector_store"`
	VectorSize  int          `yaml:"vector_size" toml:"vector_size"`
	Qdrant      QdrantConfig `yaml:"qdrant" toml:"qdrant"`
	SQLitePath  string       `yaml:"sqlite_path" toml:"sqlite_path"`

	Embedding domain.EmbeddingSettings `yaml:"embedding" toml:"embedding"`

	Tokenizer         string `yaml:"tokenizer" toml:"tokenizer"`
	TokenizerEncoding string `yaml:"tokenizer_encoding" toml:"tokenizer_encoding"`
	ChunkMaxTokens    int    `yaml:"chunk_max_tokens" toml:"chunk_max_tokens"`
	IngestWorkers     int    `yaml:"ingest_workers" toml:"ingest_workers"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes" toml:"max_upload_bytes"`

	HIBPEnabled bool   `yaml:"hibp_enabled" toml:"hibp_enabled"`
	HIBPURL     string `yaml:"hibp_url" toml:"hibp_url"`

	LogFormat string `yaml:"log_format" toml:"log_format"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
}

// DBConfig sizes the Postgres pool
type DBConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" toml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" toml:"conn_max_idle_time"`
}

// QdrantConfig holds the Qdrant connection. HTTPPort is informational;
// the client speaks gRPC.
type QdrantConfig struct {
	Host       string `yaml:"host" toml:"host"`
	HTTPPort   int    `yaml:"http_port" toml:"http_port"`
	GRPCPort   int    `yaml:"grpc_port" toml:"grpc_port"`
	APIKey     string `yaml:"api_key" toml:"api_key"`
	UseTLS     bool   `yaml:"use_tls" toml:"use_tls"`
	Collection string `yaml:"collection" toml:"collection"`
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Port:       8000,
		SessionTTL: 24 * time.Hour,
		DB: DBConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
		VectorStore: VectorStoreQdrant,
		VectorSize:  384,
		Qdrant: QdrantConfig{
			Host:       "localhost",
			HTTPPort:   6333,
			GRPCPort:   6334,
			Collection: "documents",
		},
		SQLitePath: filepath.Join(".sercha", "vectors.db"),
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			Timeout:  60 * time.Second,
		},
		Tokenizer:         TokenizerTiktoken,
		TokenizerEncoding: "cl100k_base",
		ChunkMaxTokens:    500,
		MaxUploadBytes:    20 << 20,
		HIBPEnabled:       true,
		LogFormat:         "text",
		LogLevel:          "info",
	}
}

// Load reads .env (if present), the optional CONFIG_FILE and the environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// loadFile overlays a YAML or TOML file, picked by extension
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvInt("PORT", c.Port)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.DB.MaxOpenConns)
	c.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.DB.MaxIdleConns)
	c.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.DB.ConnMaxLifetime)
	c.DB.ConnMaxIdleTime = getEnvDuration("DB_CONN_MAX_IDLE_TIME", c.DB.ConnMaxIdleTime)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)

	c.VectorStore = strings.ToLower(getEnv("VECTOR_STORE", c.VectorStore))
	c.VectorSize = getEnvInt("QDRANT_VECTOR_SIZE", c.VectorSize)
	c.Qdrant.Host = getEnv("QDRANT_HOST", c.Qdrant.Host)
	c.Qdrant.HTTPPort = getEnvInt("QDRANT_HTTP_PORT", c.Qdrant.HTTPPort)
	c.Qdrant.GRPCPort = getEnvInt("QDRANT_GRPC_PORT", c.Qdrant.GRPCPort)
	c.Qdrant.APIKey = getEnv("QDRANT_API_KEY", c.Qdrant.APIKey)
	c.Qdrant.UseTLS = getEnvBool("QDRANT_USE_TLS", c.Qdrant.UseTLS)
	c.Qdrant.Collection = getEnv("QDRANT_COLLECTION_NAME", c.Qdrant.Collection)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	e := &c.Embedding
	e.Provider = domain.AIProvider(strings.ToLower(getEnv("EMBEDDING_PROVIDER", string(e.Provider))))
	e.Model = getEnv("EMBEDDING_MODEL", e.Model)
	e.Timeout = getEnvDuration("EMBEDDING_TIMEOUT", e.Timeout)
	e.Dimensions = getEnvInt("EMBEDDING_DIMENSIONS", e.Dimensions)
	e.RequestsPerSecond = getEnvFloat("EMBEDDING_REQUESTS_PER_SECOND", e.RequestsPerSecond)
	if e.Provider == domain.AIProviderAzure {
		e.APIKey = getEnv("AZURE_OPENAI_API_KEY", e.APIKey)
		e.BaseURL = getEnv("AZURE_OPENAI_ENDPOINT", e.BaseURL)
		e.Deployment = getEnv("AZURE_OPENAI_DEPLOYMENT", e.Deployment)
		e.APIVersion = getEnv("AZURE_OPENAI_API_VERSION", e.APIVersion)
	} else {
		e.APIKey = getEnv("OPENAI_API_KEY", e.APIKey)
		e.BaseURL = getEnv("EMBEDDING_BASE_URL", e.BaseURL)
	}

	c.Tokenizer = strings.ToLower(getEnv("TOKENIZER", c.Tokenizer))
	c.TokenizerEncoding = getEnv("TOKENIZER_ENCODING", c.TokenizerEncoding)
	c.ChunkMaxTokens = getEnvInt("CHUNK_MAX_TOKENS", c.ChunkMaxTokens)
	c.IngestWorkers = getEnvInt("INGEST_WORKERS", c.IngestWorkers)
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))

	c.HIBPEnabled = getEnvBool("HIBP_ENABLED", c.HIBPEnabled)
	c.HIBPURL = getEnv("HIBP_URL", c.HIBPURL)

	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	if getEnvBool("DEBUG", false) {
		c.LogLevel = "debug"
	}
}

// Validate checks the settings the given mode depends on
func (c *Config) Validate(mode Mode) error {
	errs := domain.NewValidationError()

	if mode == ModeServe {
		if c.JWTSecret == "" {
			errs.Add("JWT_SECRET", "is required")
		}
		if c.DatabaseURL == "" {
			errs.Add("DATABASE_URL", "is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			errs.Add("PORT", "must be between 1 and 65535")
		}
	}
	if c.VectorSize <= 0 {
		errs.Add("QDRANT_VECTOR_SIZE", "must be greater than 0")
	}

	switch c.VectorStore {
	case VectorStoreQdrant:
		if c.Qdrant.Host == "" {
			errs.Add("QDRANT_HOST", "is required")
		}
		if c.Qdrant.Collection == "" {
			errs.Add("QDRANT_COLLECTION_NAME", "is required")
		}
	case VectorStorePgvector:
		if c.DatabaseURL == "" {
			errs.Add("DATABASE_URL", "is required for pgvector")
		}
	case VectorStoreSQLite:
		if c.SQLitePath == "" {
			errs.Add("SQLITE_PATH", "is required")
		}
	default:
		errs.Add("VECTOR_STORE", "must be one of qdrant, pgvector, sqlite")
	}

	if c.Embedding.Provider != "" && !c.Embedding.Provider.IsValid() {
		errs.Add("EMBEDDING_PROVIDER", "must be openai or azure")
	}
	if c.Tokenizer != TokenizerTiktoken && c.Tokenizer != TokenizerWhitespace {
		errs.Add("TOKENIZER", "must be tiktoken or whitespace")
	}
	if c.MaxUploadBytes <= 0 {
		errs.Add("MAX_UPLOAD_BYTES", "must be greater than 0")
	}

	if !errs.HasErrors() {
		return nil
	}

	keys := make([]string, 0, len(errs.Fields))
	for k := range errs.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + errs.Fields[k]
	}
	return fmt.Errorf("invalid configuration: %s: %w", strings.Join(parts, "; "), errs)
}

// CollectionName is the collection every vector store adapter uses
func (c *Config) CollectionName() string {
	return c.Qdrant.Collection
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
