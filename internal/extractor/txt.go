package extractor

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*TXT)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TXT extracts UTF-8 plain text files.
type TXT struct{}

// NewTXT creates a plain text extractor.
func NewTXT() *TXT {
	return &TXT{}
}

func (t *TXT) Extensions() []string {
	return []string{".txt"}
}

// Extract decodes content as UTF-8. Invalid byte sequences are a failure,
// not something to replace.
func (t *TXT) Extract(content []byte) (*domain.ExtractedText, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, errors.New("content is not valid UTF-8")
	}
	return &domain.ExtractedText{Text: CleanText(string(content))}, nil
}
