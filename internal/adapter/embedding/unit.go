package embedding

import (
	"fmt"
	"math"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Unit wraps an embedding collaborator and guarantees unit-length rows.
// It never retries; transient failures are the collaborator's concern.
type Unit struct {
	inner port.Embedder
}

func NewUnit(inner port.Embedder) *Unit {
	return &Unit{inner: inner}
}

// Embed issues a single call to the collaborator and checks its shape before
// normalizing. The returned rows are fresh copies.
func (u *Unit) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	rows, err := u.inner.Embed(texts)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Op: "embed", Err: err}
	}

	if len(rows) != len(texts) {
		return nil, &domain.EmbeddingServiceError{
			Op:  "embed",
			Err: fmt.Errorf("expected %d vectors, got %d", len(texts), len(rows)),
		}
	}

	dim := len(rows[0])
	out := make([][]float32, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, &domain.EmbeddingServiceError{Op: "embed", Err: fmt.Errorf("vector %d is empty", i)}
		}
		if len(row) != dim {
			return nil, &domain.EmbeddingServiceError{
				Op:  "embed",
				Err: fmt.Errorf("vector %d has dimension %d, expected %d", i, len(row), dim),
			}
		}
		v := make([]float32, len(row))
		copy(v, row)
		L2Normalize(v)
		out[i] = v
	}

	return out, nil
}

// EmbedOne embeds a single text.
func (u *Unit) EmbedOne(text string) ([]float32, error) {
	rows, err := u.Embed([]string{text})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (u *Unit) ModelName() string {
	return u.inner.ModelName()
}

// L2Normalize scales v in place to unit length. Zero vectors are left as is.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
