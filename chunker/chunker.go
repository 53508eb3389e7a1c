// Package chunker splits extracted document text into token-bounded chunks
// so arbitrarily long documents stay within embedding model input limits.
package chunker

import (
	"errors"
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

var (
	// ErrEmptyText indicates there is no text to chunk.
	ErrEmptyText = errors.New("cannot chunk empty text")

	// ErrInvalidChunkSize indicates chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrOverlapTooLarge indicates overlap is negative or >= chunk size.
	ErrOverlapTooLarge = errors.New("overlap must be non-negative and less than chunk size")
)

// Config holds chunking behavior.
type Config struct {
	// ChunkSize is the target number of tokens per chunk.
	ChunkSize int

	// Overlap is the number of tokens shared between consecutive chunks,
	// preserving context at boundaries.
	Overlap int
}

// DefaultConfig matches OpenAI text-embedding-3-small comfortably:
// 512-token chunks with a 50-token overlap.
func DefaultConfig() Config {
	return Config{ChunkSize: 512, Overlap: 50}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return ErrOverlapTooLarge
	}
	return nil
}

// Splitter chunks text with a fixed token window and overlap, using
// tiktoken's cl100k_base encoding (the one OpenAI embedding models use).
type Splitter struct {
	config   Config
	encoding tokenizer.Codec
}

// NewSplitter creates a Splitter with the given configuration.
func NewSplitter(config Config) (*Splitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("initialize tokenizer: %w", err)
	}
	return &Splitter{config: config, encoding: enc}, nil
}

// CountTokens counts the tokens in text.
func (s *Splitter) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := s.encoding.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("tokenize: %w", err)
	}
	return len(ids), nil
}

// Split returns the text in token-bounded pieces. Text that fits in one
// chunk comes back unchanged as a single element.
func (s *Splitter) Split(text string) ([]string, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	tokens, _, err := s.encoding.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) <= s.config.ChunkSize {
		return []string{text}, nil
	}

	stride := s.config.ChunkSize - s.config.Overlap
	var chunks []string
	for start := 0; start < len(tokens); start += stride {
		end := min(start+s.config.ChunkSize, len(tokens))
		piece, err := s.encoding.Decode(tokens[start:end])
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d: %w", len(chunks), err)
		}
		chunks = append(chunks, piece)
		if end >= len(tokens) {
			break
		}
	}

	return chunks, nil
}
