package memstore

import (
	"fmt"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// NoteStore keeps notes in memory. Nothing survives Close.
type NoteStore struct {
	mu    sync.RWMutex
	notes map[string]domain.Note
	seq   map[string]int
	next  int
}

func NewNoteStore() *NoteStore {
	return &NoteStore{
		notes: make(map[string]domain.Note),
		seq:   make(map[string]int),
	}
}

func (s *NoteStore) Create(note domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[note.ID]; ok {
		return fmt.Errorf("note %s already exists", note.ID)
	}
	s.notes[note.ID] = note
	s.seq[note.ID] = s.next
	s.next++
	return nil
}

func (s *NoteStore) Get(id string) (domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return domain.Note{}, fmt.Errorf("%w: %s", domain.ErrNoteNotFound, id)
	}
	return note, nil
}

// List returns notes in reverse insertion order.
func (s *NoteStore) List() ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := make([]domain.Note, 0, len(s.notes))
	for _, note := range s.notes {
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool {
		return s.seq[notes[i].ID] > s.seq[notes[j].ID]
	})
	return notes, nil
}

func (s *NoteStore) Update(note domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[note.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, note.ID)
	}
	s.notes[note.ID] = note
	return nil
}

func (s *NoteStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, id)
	}
	delete(s.notes, id)
	delete(s.seq, id)
	return nil
}

func (s *NoteStore) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.notes)
	s.notes = make(map[string]domain.Note)
	s.seq = make(map[string]int)
	return n, nil
}

func (s *NoteStore) Close() error {
	return nil
}
