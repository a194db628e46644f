package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ingest/internal/extractor"
	"github.com/custodia-labs/sercha-ingest/internal/runtime"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// ingestService coordinates the ingestion pipeline:
//  1. Check input and caller
//  2. Chunk the free text
//  3. Extract and chunk the file, page by page
//  4. Clean every chunk
//  5. Embed all chunks in one batch
//  6. Write one point per chunk, in order
//
// Extraction and embedding hold a worker slot so a burst of large uploads
// cannot occupy every request goroutine at once.
type ingestService struct {
	extractors driven.ExtractorRegistry
	chunker    driven.Chunker
	services   *runtime.Services
	workers    *semaphore.Weighted
	newID      func() string
	logger     *slog.Logger
}

// IngestServiceConfig holds dependencies for the ingest service.
type IngestServiceConfig struct {
	Extractors driven.ExtractorRegistry
	Chunker    driven.Chunker
	Services   *runtime.Services

	// Workers bounds concurrent extraction and embedding work.
	// Defaults to the number of CPUs.
	Workers int

	// NewID generates point ids. Defaults to random UUIDv4.
	NewID func() string

	Logger *slog.Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(cfg IngestServiceConfig) driving.IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = goruntime.NumCPU()
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &ingestService{
		extractors: cfg.Extractors,
		chunker:    cfg.Chunker,
		services:   cfg.Services,
		workers:    semaphore.NewWeighted(int64(workers)),
		newID:      newID,
		logger:     logger,
	}
}

// Ingest extracts, chunks, embeds and stores the request for callerID.
// Free text chunks come first, then file chunks.
func (s *ingestService) Ingest(ctx context.Context, callerID string, req domain.IngestRequest) (*domain.IngestResult, error) {
	startTime := time.Now()

	// Step 1: Check input and caller
	if !req.HasInput() {
		return nil, domain.ErrNoInput
	}
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}

	logger := s.logger.With("user_id", callerID)
	logger.Info("starting ingest", "has_text", req.Text != "", "has_file", req.File != nil)

	// Step 2: Chunk the free text
	var chunks []domain.Chunk
	for _, text := range s.chunker.Chunk(extractor.CleanText(req.Text)) {
		chunks = append(chunks, domain.Chunk{Text: text})
	}

	// Step 3: Extract and chunk the file
	if req.File != nil {
		fileChunks, err := s.chunkFile(ctx, req.File)
		if err != nil {
			logger.Warn("file ingest failed", "filename", req.File.Filename, "error", err)
			return nil, err
		}
		chunks = append(chunks, fileChunks...)
	}

	// Step 4: Clean every chunk, dropping any that clean to nothing
	texts := make([]string, 0, len(chunks))
	kept := chunks[:0]
	for _, chunk := range chunks {
		chunk.Text = extractor.CleanText(chunk.Text)
		if chunk.Text == "" {
			continue
		}
		kept = append(kept, chunk)
		texts = append(texts, chunk.Text)
	}
	chunks = kept

	if len(chunks) == 0 {
		return nil, domain.ErrNoInput
	}

	// Step 5: Embed in one batch
	vectors, err := s.embed(ctx, texts)
	if err != nil {
		logger.Error("embedding failed", "chunks", len(texts), "error", err)
		return nil, err
	}

	// Step 6: Write points in chunk order
	store := s.services.VectorStore()
	if store == nil {
		return nil, fmt.Errorf("%w: no vector store configured", domain.ErrStoreUnavailable)
	}

	for i, chunk := range chunks {
		id := s.newID()
		point := domain.Point{
			ID:     id,
			Vector: vectors[i],
			Payload: domain.Payload{
				ID:     id,
				UserID: callerID,
				Text:   chunk.Text,
				Part:   chunk.Part,
			},
		}
		if err := store.Upsert(ctx, point); err != nil {
			logger.Error("partial write", "stored", i, "total", len(chunks), "error", err)
			return nil, &domain.PartialWriteError{Stored: i, Total: len(chunks), Err: err}
		}
	}

	logger.Info("ingest completed",
		"chunks", len(chunks),
		"duration", time.Since(startTime),
	)

	return &domain.IngestResult{
		Status:      domain.IngestStatusSuccess,
		ChunksSaved: len(chunks),
		Chunks:      texts,
	}, nil
}

// chunkFile extracts the file on a worker slot and chunks each part
// independently. Paginated parts tag their chunks with the page number.
func (s *ingestService) chunkFile(ctx context.Context, file *domain.RawDocument) ([]domain.Chunk, error) {
	if err := s.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.workers.Release(1)

	text, err := s.extractors.Extract(file.Filename, file.Content)
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailed) {
			err = fmt.Errorf("%s: %w: %v", file.Filename, domain.ErrExtractionFailed, err)
		}
		return nil, err
	}

	var chunks []domain.Chunk
	for _, part := range text.Parts() {
		for _, piece := range s.chunker.Chunk(part.Text) {
			chunks = append(chunks, domain.Chunk{Text: piece, Part: part.Number})
		}
	}
	return chunks, nil
}

// embed runs the single batch call and checks that it returned exactly one
// vector per text. Provider errors are wrapped, never exposed verbatim.
func (s *ingestService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedding := s.services.EmbeddingService()
	if embedding == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingFailed)
	}

	if err := s.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.workers.Release(1)

	// The call runs to completion once issued; only the client timeout applies.
	vectors, err := embedding.Embed(context.WithoutCancel(ctx), texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrEmbeddingFailed)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}
