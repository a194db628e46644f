// Package extractor turns uploaded files into normalized plain text.
// Dispatch is closed over a fixed set of filename suffixes: anything else
// fails fast instead of degrading into garbage chunks.
package extractor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry keyed by lower-cased filename suffix.
// Registering a second extractor for a suffix replaces the first.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.TextExtractor
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		extractors: make(map[string]driven.TextExtractor),
		logger:     logger,
	}
}

// DefaultRegistry creates a registry with the txt, docx and pdf extractors.
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewTXT())
	r.Register(NewDOCX())
	r.Register(NewPDF())
	return r
}

// Register registers an extractor for each suffix it reports.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range extractor.Extensions() {
		r.extractors[normaliseExt(ext)] = extractor
	}
}

// Extract runs the extractor registered for the filename suffix.
// Every error wraps domain.ErrExtractionFailed and no partial text is returned.
func (r *Registry) Extract(filename string, content []byte) (*domain.ExtractedText, error) {
	doc := &domain.RawDocument{Filename: filename, Content: content}
	ext := doc.Ext()

	r.mu.RLock()
	extractor, ok := r.extractors[ext]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unsupported file type", "filename", filename, "ext", ext)
		return nil, fmt.Errorf("%s: %w", filename, domain.ErrUnsupportedFormat)
	}

	r.logger.Info("extracting text", "filename", filename, "ext", ext, "bytes", len(content))

	text, err := extractor.Extract(content)
	if err != nil {
		r.logger.Error("text extraction failed", "filename", filename, "error", err)
		return nil, fmt.Errorf("%s: %w: %v", filename, domain.ErrExtractionFailed, err)
	}
	if text == nil || text.IsEmpty() {
		r.logger.Warn("no text extracted", "filename", filename)
		return nil, fmt.Errorf("%s: %w: no text found", filename, domain.ErrExtractionFailed)
	}

	if text.IsPaginated() {
		r.logger.Info("text extracted", "filename", filename, "pages", len(text.Pages))
	} else {
		r.logger.Info("text extracted", "filename", filename, "chars", len(text.Text))
	}
	return text, nil
}

// Supported returns all registered suffixes.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
