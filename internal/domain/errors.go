package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when a build has neither a document nor pasted text.
	ErrNoContent = errors.New("no content provided (document or pasted text)")

	// ErrEmptyInput is returned when chunking finds no tokens.
	ErrEmptyInput = errors.New("no chunks created; try a smaller chunk size or a different document")

	// ErrInvalidChunking is returned for chunk sizes or overlaps out of range.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrUnsupportedFormat is returned by the ingestion layer for unknown file types.
	ErrUnsupportedFormat = errors.New("unsupported file type; use PDF or TXT")

	// ErrEmptyQuery is returned when a search is run with a blank query.
	ErrEmptyQuery = errors.New("empty query")

	ErrEmbeddingService  = errors.New("embedding service failure")
	ErrGenerationService = errors.New("generation service failure")

	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidNote  = errors.New("note needs a title or content")
)

// EmbeddingServiceError reports an unreachable or malformed embedding collaborator.
type EmbeddingServiceError struct {
	Op  string
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("embedding service: %v", e.Err)
	}
	return fmt.Sprintf("embedding service: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEmbeddingService) match any EmbeddingServiceError.
func (e *EmbeddingServiceError) Is(target error) bool { return target == ErrEmbeddingService }

// GenerationServiceError reports a failed call to the text-generation collaborator.
type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

func (e *GenerationServiceError) Is(target error) bool { return target == ErrGenerationService }
