package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// RawDocument is an uploaded file. It lives only for the duration of one
// ingestion call and is never persisted or queued.
type RawDocument struct {
	Filename string
	Content  []byte
}

// Ext returns the lower-cased filename suffix including the dot
func (d *RawDocument) Ext() string {
	return strings.ToLower(filepath.Ext(d.Filename))
}

// ExtractedText is the normalized text of a document. Paginated formats fill
// Pages (1-based, empty pages omitted); everything else fills Text.
type ExtractedText struct {
	Text  string
	Pages map[int]string
}

// IsPaginated reports whether the text is split by page
func (e *ExtractedText) IsPaginated() bool {
	return e.Pages != nil
}

// IsEmpty reports whether there is no text at all
func (e *ExtractedText) IsEmpty() bool {
	if e.IsPaginated() {
		return len(e.Pages) == 0
	}
	return e.Text == ""
}

// TextPart is one independently chunked unit of extracted text
type TextPart struct {
	Number *int
	Text   string
}

// Parts returns the text units in page order. Non-paginated text is a single
// part without a number.
func (e *ExtractedText) Parts() []TextPart {
	if !e.IsPaginated() {
		return []TextPart{{Text: e.Text}}
	}

	numbers := make([]int, 0, len(e.Pages))
	for n := range e.Pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	parts := make([]TextPart, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, TextPart{Number: IntPtr(n), Text: e.Pages[n]})
	}
	return parts
}

// Chunk is a token-bounded slice of source text ready for embedding.
// Part is the source page number for paginated files.
type Chunk struct {
	Text string `json:"text"`
	Part *int   `json:"part,omitempty"`
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}
