package driven

import "github.com/custodia-labs/sercha-ingest/internal/core/domain"

// TextExtractor turns the bytes of one file format into normalized text.
type TextExtractor interface {
	// Extensions returns the lower-cased filename suffixes handled, including the dot
	Extensions() []string

	// Extract returns the document text. Implementations return an error
	// rather than partial output when the content cannot be parsed.
	Extract(content []byte) (*domain.ExtractedText, error)
}

// ExtractorRegistry dispatches extraction by filename suffix.
type ExtractorRegistry interface {
	// Register adds an extractor, replacing any previous one for the same suffixes
	Register(extractor TextExtractor)

	// Extract runs the extractor registered for the filename's suffix.
	// Errors wrap domain.ErrExtractionFailed.
	Extract(filename string, content []byte) (*domain.ExtractedText, error)

	// Supported returns the registered suffixes in sorted order
	Supported() []string
}
