package tokenizer

import (
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Whitespace implements Tokenizer
var _ driven.Tokenizer = (*Whitespace)(nil)

// Whitespace treats every whitespace-separated word as one token. Ids are
// assigned on first sight and are stable for the lifetime of the value.
type Whitespace struct {
	mu    sync.RWMutex
	ids   map[string]int
	words []string
}

// NewWhitespace creates a whitespace tokenizer.
func NewWhitespace() *Whitespace {
	return &Whitespace{ids: make(map[string]int)}
}

func (w *Whitespace) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))

	w.mu.Lock()
	defer w.mu.Unlock()
	for i, word := range fields {
		id, ok := w.ids[word]
		if !ok {
			id = len(w.words)
			w.ids[word] = id
			w.words = append(w.words, word)
		}
		tokens[i] = id
	}
	return tokens
}

// Decode joins the words with single spaces. Unknown ids are skipped.
func (w *Whitespace) Decode(tokens []int) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id >= 0 && id < len(w.words) {
			words = append(words, w.words[id])
		}
	}
	return strings.Join(words, " ")
}

func (w *Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

// Ensure PunctSplitter implements SentenceSplitter
var _ driven.SentenceSplitter = PunctSplitter{}

// PunctSplitter ends a sentence after '.', '!' or '?' followed by whitespace.
// It has no abbreviation handling and exists for offline runs.
type PunctSplitter struct{}

func (PunctSplitter) Split(text string) []string {
	var (
		out   []string
		start int
	)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || isSpace(text[i+1]) {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
