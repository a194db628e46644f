package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/hibp"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/postgres"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/qdrant"
	redisadapter "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-ingest/internal/chunker"
	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/core/services"
	"github.com/custodia-labs/sercha-ingest/internal/extractor"
	"github.com/custodia-labs/sercha-ingest/internal/runtime"
)

// wire loads configuration and builds every client the command needs.
// Clients are opened once here and shared for the life of the process.
func wire(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	if opts.ConfigFile != "" {
		if err := os.Setenv("CONFIG_FILE", opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(opts.Mode); err != nil {
		return nil, err
	}

	logger := setupLogging(cfg)
	log.Printf("sercha-ingest %s starting (vector store: %s)", cli.Version(), cfg.VectorStore)

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		closers = nil
		return errors.Join(errs...)
	}
	fail := func(err error) (*cli.Services, error) {
		_ = closeAll()
		return nil, err
	}

	// Redis is optional: sessions and the collection lock fall back to Postgres
	var (
		redisClient *redis.Client
		lock        *redisadapter.Lock
	)
	if cfg.RedisURL != "" {
		redisClient, err = redisadapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		closers = append(closers, redisClient.Close)
		lock = redisadapter.NewLock(redisClient)
		log.Println("Connected to Redis")
	}

	var db *postgres.DB
	if opts.Mode == config.ModeServe || cfg.VectorStore == config.VectorStorePgvector {
		db, err = postgres.Connect(ctx, postgres.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)
		log.Println("Connected to PostgreSQL")
	}

	sessionBackend := "postgres"
	if redisClient != nil {
		sessionBackend = "redis"
	}
	rt := runtime.NewServices(domain.NewRuntimeConfig(sessionBackend, cfg.VectorStore))
	switch {
	case lock != nil:
		rt.SetCollectionLock(lock)
	case db != nil:
		rt.SetCollectionLock(postgres.NewAdvisoryLock(db))
	}
	closers = append(closers, rt.Close)

	store, err := newVectorStore(cfg, db, logger)
	if err != nil {
		return fail(err)
	}
	if err := rt.ValidateAndSetVectorStore(ctx, store, cfg.VectorSize); err != nil {
		return fail(fmt.Errorf("vector store: %w", err))
	}

	embedding, err := ai.NewFactory().CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return fail(fmt.Errorf("embedding: %w", err))
	}
	if embedding != nil && embedding.Dimensions() != cfg.VectorSize {
		logger.Warn("embedding size differs from the collection size, set EMBEDDING_DIMENSIONS",
			"model", embedding.Model(),
			"model_dimensions", embedding.Dimensions(),
			"collection_dimensions", cfg.VectorSize,
		)
	}
	switch {
	case embedding == nil:
		logger.Warn("embedding provider not configured, ingest and search will fail")
	case opts.Mode == config.ModeServe:
		// A provider outage must not keep the API down; /health reports it
		rt.SetEmbeddingService(embedding)
	default:
		if err := rt.ValidateAndSetEmbedding(ctx, embedding); err != nil {
			return fail(fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err))
		}
	}

	tok, splitter, err := tokenizer.New(cfg.Tokenizer, cfg.TokenizerEncoding)
	if err != nil {
		return fail(err)
	}
	registry := extractor.DefaultRegistry(logger)

	ingest := services.NewIngestService(services.IngestServiceConfig{
		Extractors: registry,
		Chunker:    chunker.New(tok, splitter, chunker.WithMaxTokens(cfg.ChunkMaxTokens)),
		Services:   rt,
		Workers:    cfg.IngestWorkers,
		Logger:     logger,
	})
	search := services.NewSearchService(rt, logger)

	svc := &cli.Services{
		Ingest:    ingest,
		Search:    search,
		Supported: registry.Supported(),
		Close:     closeAll,
	}

	if opts.Mode == config.ModeServe {
		server, err := newServer(ctx, cfg, db, redisClient, lock, rt, ingest, search, logger)
		if err != nil {
			return fail(err)
		}
		svc.Serve = func(context.Context) error {
			return server.Start()
		}
	}

	return svc, nil
}

// newVectorStore opens the configured backend. pgvector shares the main pool.
func newVectorStore(cfg *config.Config, db *postgres.DB, logger *slog.Logger) (driven.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStoreQdrant:
		return qdrant.New(qdrant.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.GRPCPort,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.CollectionName(),
		}, logger)
	case config.VectorStorePgvector:
		if db == nil {
			return nil, fmt.Errorf("%w: pgvector needs DATABASE_URL", domain.ErrInvalidInput)
		}
		return postgres.NewVectorStore(db, cfg.CollectionName(), false, logger)
	case config.VectorStoreSQLite:
		return sqlite.New(cfg.SQLitePath, cfg.CollectionName(), logger)
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrInvalidInput, cfg.VectorStore)
	}
}

// newServer builds the auth stack and the HTTP server
func newServer(
	ctx context.Context,
	cfg *config.Config,
	db *postgres.DB,
	redisClient *redis.Client,
	lock *redisadapter.Lock,
	rt *runtime.Services,
	ingest driving.IngestService,
	search driving.SearchService,
	logger *slog.Logger,
) (*http.Server, error) {
	if err := db.InitSchema(ctx); err != nil {
		return nil, err
	}

	userStore := postgres.NewUserStore(db)
	var sessionStore driven.SessionStore = postgres.NewSessionStore(db)
	if redisClient != nil {
		sessionStore = redisadapter.NewSessionStore(redisClient)
	}
	authAdapter := auth.NewAdapter(cfg.JWTSecret)

	var breaches driven.BreachChecker
	if cfg.HIBPEnabled {
		breaches = hibp.NewClient(cfg.HIBPURL, 0)
	}

	deps := http.Dependencies{
		Auth:     services.NewAuthService(userStore, sessionStore, authAdapter, cfg.SessionTTL),
		Users:    services.NewUserService(userStore, authAdapter, services.NewPasswordPolicy(breaches, logger)),
		Ingest:   ingest,
		Search:   search,
		Services: rt,
		DB:       db,
		Logger:   logger,
	}
	if lock != nil {
		deps.Redis = lock
	}

	serverCfg := http.DefaultConfig()
	serverCfg.Port = cfg.Port
	serverCfg.Version = cli.Version()
	serverCfg.MaxUploadBytes = cfg.MaxUploadBytes

	return http.NewServer(serverCfg, deps), nil
}

// setupLogging installs the process-wide slog handler
func setupLogging(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
