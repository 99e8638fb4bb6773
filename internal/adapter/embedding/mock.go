package embedding

import (
	"hash/fnv"
	"sync/atomic"

	"docqa/internal/adapter/analyzer"
)

// MockEmbedder hashes content terms into a fixed number of buckets. Texts
// that share terms get similar vectors, which is enough for offline runs.
type MockEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
	calls     atomic.Int64
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &MockEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}
}

func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	e.calls.Add(1)
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dimension)
		for _, term := range e.tokenizer.Tokenize(text) {
			h := fnv.New64a()
			h.Write([]byte(term))
			sum := h.Sum64()

			bucket := int(sum % uint64(e.dimension))
			if sum>>63 == 1 {
				v[bucket] -= 1
			} else {
				v[bucket] += 1
			}
		}
		embeddings[i] = v
	}
	return embeddings, nil
}

// Calls reports how many times Embed has been invoked.
func (e *MockEmbedder) Calls() int {
	return int(e.calls.Load())
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
