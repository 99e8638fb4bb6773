package index

import (
	"fmt"
	"sort"
)

// Hit is a matched row and its inner-product score against the query.
type Hit struct {
	Position int
	Score    float64
}

// Flat is an exact inner-product index over a dense matrix. Rows are expected
// to be unit length, so scores are cosine similarities. A Flat is immutable
// once built and safe for concurrent queries.
type Flat struct {
	vecs [][]float32
	dim  int
}

// Build copies vectors into a new index. All rows must share one dimension.
func Build(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return &Flat{}, nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("index: vector 0 is empty")
	}

	vecs := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("index: inconsistent vector dims %d vs %d at row %d", len(v), dim, i)
		}
		row := make([]float32, dim)
		copy(row, v)
		vecs[i] = row
	}

	return &Flat{vecs: vecs, dim: dim}, nil
}

// Query scores every row against vector and returns the k best. Equal scores
// keep row order.
func (f *Flat) Query(vector []float32, k int) ([]Hit, error) {
	if len(f.vecs) == 0 || k <= 0 {
		return nil, nil
	}
	if len(vector) != f.dim {
		return nil, fmt.Errorf("index: query dim %d != index dim %d", len(vector), f.dim)
	}

	hits := make([]Hit, len(f.vecs))
	for i, row := range f.vecs {
		hits[i] = Hit{Position: i, Score: dot(vector, row)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Len returns the number of indexed rows.
func (f *Flat) Len() int {
	return len(f.vecs)
}

// Dimension returns the row dimension, or 0 for an empty index.
func (f *Flat) Dimension() int {
	return f.dim
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
