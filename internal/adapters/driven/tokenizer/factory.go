package tokenizer

import (
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Tokenizer kinds accepted by New.
const (
	KindTiktoken   = "tiktoken"
	KindWhitespace = "whitespace"
)

// New returns the tokenizer and sentence splitter for kind. The tiktoken
// kind pairs the BPE encoder with punkt; whitespace pairs with the
// punctuation splitter and needs no model data.
func New(kind, encoding string) (driven.Tokenizer, driven.SentenceSplitter, error) {
	switch kind {
	case "", KindTiktoken:
		tok, err := NewTiktoken(encoding)
		if err != nil {
			return nil, nil, err
		}
		splitter, err := NewPunkt()
		if err != nil {
			return nil, nil, err
		}
		return tok, splitter, nil
	case KindWhitespace:
		return NewWhitespace(), PunctSplitter{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}
