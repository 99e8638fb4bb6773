package chunker

import (
	"fmt"
	"strings"

	"docqa/internal/adapter/analyzer"
	"docqa/internal/domain"
)

// WindowChunker splits text into fixed-size word windows that overlap by a
// fixed number of words.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidChunking, overlap)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Step is the number of words between the starts of consecutive windows.
func (c *WindowChunker) Step() int {
	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}
	return step
}

// Chunk normalizes whitespace and emits windows until every word is covered.
// The final window may be shorter than size.
func (c *WindowChunker) Chunk(text string) ([]domain.Chunk, error) {
	tokens := analyzer.Words(text)
	if len(tokens) == 0 {
		return nil, domain.ErrEmptyInput
	}

	step := c.Step()
	chunks := make([]domain.Chunk, 0, len(tokens)/step+1)

	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, domain.Chunk{
			Index:      len(chunks),
			Text:       strings.Join(tokens[start:end], " "),
			StartToken: start,
			EndToken:   end,
		})
	}

	return chunks, nil
}
