package port

import "docqa/internal/domain"

// NoteStore persists notes. It is unrelated to the retrieval index.
type NoteStore interface {
	Create(note domain.Note) error

	Get(id string) (domain.Note, error)

	// List returns all notes, newest first.
	List() ([]domain.Note, error)

	Update(note domain.Note) error

	Delete(id string) error

	DeleteAll() (int, error)

	Close() error
}
