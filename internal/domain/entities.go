package domain

import "time"

// Document is an uploaded file: its name selects the decoder.
type Document struct {
	Name string
	Data []byte
}

// Chunk is one word window of the indexed document.
type Chunk struct {
	Index      int    // Position in the chunk sequence, equal to its index row
	Text       string // Space-joined tokens
	StartToken int    // First token offset in the normalized document
	EndToken   int    // One past the last token offset
}

// ScoredChunk is a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Texts returns the chunk texts of results in ranking order.
func Texts(results []ScoredChunk) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.Text
	}
	return out
}

// Note is a free-form note kept by the notes subsystem.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
