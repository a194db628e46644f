// Package chunker splits normalized text into token-bounded chunks that
// break only at sentence boundaries, except when a single sentence is
// longer than the bound on its own.
package chunker

import (
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// DefaultMaxTokens is the token bound used when none is configured.
const DefaultMaxTokens = 500

// Verify interface compliance
var _ driven.Chunker = (*SentenceChunker)(nil)

// SentenceChunker implements Chunker on top of a tokenizer and a sentence
// splitter. It holds no mutable state and is safe for concurrent use.
type SentenceChunker struct {
	tokenizer driven.Tokenizer
	splitter  driven.SentenceSplitter
	maxTokens int
}

// Option configures a SentenceChunker.
type Option func(*SentenceChunker)

// WithMaxTokens sets the token bound. Values <= 0 keep the default.
func WithMaxTokens(n int) Option {
	return func(c *SentenceChunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// New creates a chunker.
func New(tokenizer driven.Tokenizer, splitter driven.SentenceSplitter, opts ...Option) *SentenceChunker {
	c := &SentenceChunker{
		tokenizer: tokenizer,
		splitter:  splitter,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxTokens returns the configured token bound.
func (c *SentenceChunker) MaxTokens() int {
	return c.maxTokens
}

// Chunk accumulates whole sentences until the next one would exceed the
// bound, then flushes. A sentence that is over the bound by itself is cut
// into consecutive windows of maxTokens tokens, each emitted as its own
// chunk. Output order follows sentence order and no chunk is empty.
func (c *SentenceChunker) Chunk(text string) []string {
	var (
		chunks []string
		acc    []string
		count  int
	)

	flush := func() {
		if len(acc) == 0 {
			return
		}
		if joined := strings.TrimSpace(strings.Join(acc, " ")); joined != "" {
			chunks = append(chunks, joined)
		}
		acc = acc[:0]
		count = 0
	}

	for _, sentence := range c.splitter.Split(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		n := c.tokenizer.Count(sentence)
		if count+n <= c.maxTokens {
			acc = append(acc, sentence)
			count += n
			continue
		}

		flush()

		if n > c.maxTokens {
			chunks = append(chunks, c.hardSplit(sentence)...)
			continue
		}

		acc = append(acc, sentence)
		count = n
	}

	flush()
	return chunks
}

// hardSplit slices the token sequence of one oversized sentence into
// windows of maxTokens tokens (the last may be shorter).
func (c *SentenceChunker) hardSplit(sentence string) []string {
	tokens := c.tokenizer.Encode(sentence)

	var out []string
	for start := 0; start < len(tokens); start += c.maxTokens {
		end := min(start+c.maxTokens, len(tokens))
		if window := strings.TrimSpace(c.tokenizer.Decode(tokens[start:end])); window != "" {
			out = append(out, window)
		}
	}
	return out
}
