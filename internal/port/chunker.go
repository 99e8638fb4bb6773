package port

import "docqa/internal/domain"

// Chunker splits normalized document text into ordered chunks.
type Chunker interface {
	Chunk(text string) ([]domain.Chunk, error)
}

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	// Extract returns the text of the named file or domain.ErrUnsupportedFormat.
	Extract(name string, data []byte) (string, error)
}
