// Package tokenizer provides the token encoders and sentence splitters the
// chunker measures text with.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// DefaultEncoding is the BPE used by the OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

// Ensure Tiktoken implements Tokenizer
var _ driven.Tokenizer = (*Tiktoken)(nil)

var loaderOnce sync.Once

// Tiktoken is a BPE tokenizer. Ranks are compiled into the binary, so
// construction never touches the network.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding. An empty name selects cl100k_base.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode returns the text for tokens. A token window can end inside a
// multi-byte rune, so invalid byte sequences become U+FFFD.
func (t *Tiktoken) Decode(tokens []int) string {
	return strings.ToValidUTF8(t.enc.Decode(tokens), "\uFFFD")
}

func (t *Tiktoken) Count(text string) int {
	return len(t.Encode(text))
}
