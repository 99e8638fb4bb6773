package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// NotesUseCase manages free-form notes. It does not touch the retrieval index.
type NotesUseCase struct {
	store port.NoteStore
	now   func() time.Time
}

func NewNotesUseCase(store port.NoteStore) *NotesUseCase {
	return &NotesUseCase{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Save stores a new note. Title and content are trimmed; at least one must
// remain non-empty.
func (u *NotesUseCase) Save(title, content string) (domain.Note, error) {
	title, content, err := cleanNote(title, content)
	if err != nil {
		return domain.Note{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Note{}, fmt.Errorf("failed to generate note id: %w", err)
	}

	now := u.now()
	note := domain.Note{
		ID:        id.String(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.store.Create(note); err != nil {
		return domain.Note{}, fmt.Errorf("failed to save note: %w", err)
	}
	return note, nil
}

// List returns every note, newest first.
func (u *NotesUseCase) List() ([]domain.Note, error) {
	return u.store.List()
}

func (u *NotesUseCase) Get(id string) (domain.Note, error) {
	return u.store.Get(id)
}

// Update replaces the title and content of an existing note.
func (u *NotesUseCase) Update(id, title, content string) (domain.Note, error) {
	title, content, err := cleanNote(title, content)
	if err != nil {
		return domain.Note{}, err
	}

	note, err := u.store.Get(id)
	if err != nil {
		return domain.Note{}, err
	}

	note.Title = title
	note.Content = content
	note.UpdatedAt = u.now()
	if err := u.store.Update(note); err != nil {
		return domain.Note{}, fmt.Errorf("failed to update note: %w", err)
	}
	return note, nil
}

func (u *NotesUseCase) Delete(id string) error {
	return u.store.Delete(id)
}

// DeleteAll removes every note and reports how many were removed.
func (u *NotesUseCase) DeleteAll() (int, error) {
	return u.store.DeleteAll()
}

func cleanNote(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return "", "", domain.ErrInvalidNote
	}
	return title, content, nil
}
