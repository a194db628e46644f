package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*PDF)(nil)

// pageSource is the part of a parsed PDF the extractor reads.
type pageSource interface {
	NumPage() int
	// PageText returns the plain text of page n (1-based). ok is false for
	// pages without a content dictionary.
	PageText(n int) (text string, ok bool, err error)
}

// PDF extracts text page by page.
type PDF struct {
	open func(content []byte) (pageSource, error)
}

// NewPDF creates a PDF extractor backed by github.com/ledongthuc/pdf.
func NewPDF() *PDF {
	return &PDF{open: openLedongthuc}
}

func (p *PDF) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns a 1-based page map. Pages that clean to empty are dropped.
// The parser panics on some malformed input; that is reported as an error.
func (p *PDF) Extract(content []byte) (text *domain.ExtractedText, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	src, err := p.open(content)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := make(map[int]string)
	for n := 1; n <= src.NumPage(); n++ {
		raw, ok, err := src.PageText(n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		if !ok {
			continue
		}
		if cleaned := CleanText(raw); cleaned != "" {
			pages[n] = cleaned
		}
	}

	return &domain.ExtractedText{Pages: pages}, nil
}

type ledongthucSource struct {
	reader *pdf.Reader
}

func openLedongthuc(content []byte) (pageSource, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return &ledongthucSource{reader: reader}, nil
}

func (s *ledongthucSource) NumPage() int {
	return s.reader.NumPage()
}

func (s *ledongthucSource) PageText(n int) (string, bool, error) {
	page := s.reader.Page(n)
	if page.V.IsNull() {
		return "", false, nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}
