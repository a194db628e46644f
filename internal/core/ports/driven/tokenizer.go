package driven

// Tokenizer measures and slices text in model tokens. Implementations are
// pure and safe for concurrent use.
type Tokenizer interface {
	// Encode converts text to token ids
	Encode(text string) []int

	// Decode converts token ids back to text
	Decode(tokens []int) string

	// Count returns the number of tokens in text
	Count(text string) int
}

// SentenceSplitter splits text into sentences in reading order.
type SentenceSplitter interface {
	Split(text string) []string
}

// Chunker splits normalized text into token-bounded chunks.
type Chunker interface {
	Chunk(text string) []string

	// MaxTokens returns the configured token bound
	MaxTokens() int
}
