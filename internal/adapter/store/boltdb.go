package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
)

var (
	bucketNotes = []byte("notes")
	bucketMeta  = []byte("meta")
)

// BoltNoteStore keeps notes in a bbolt file. Keys are note IDs; since IDs are
// UUIDv7 the key order is creation order.
type BoltNoteStore struct {
	db *bbolt.DB
}

// NewBoltNoteStore opens or creates the database at path and brings its schema
// up to date.
func NewBoltNoteStore(path string) (*BoltNoteStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketNotes, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltNoteStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *BoltNoteStore) Create(note domain.Note) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(note.ID)) != nil {
			return fmt.Errorf("note %s already exists", note.ID)
		}
		return putNote(b, note)
	})
}

func (s *BoltNoteStore) Get(id string) (domain.Note, error) {
	var note domain.Note
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketNotes).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, id)
		}
		return json.Unmarshal(data, &note)
	})
	return note, err
}

func (s *BoltNoteStore) List() ([]domain.Note, error) {
	var notes []domain.Note
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketNotes).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var note domain.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return fmt.Errorf("failed to decode note %s: %w", k, err)
			}
			notes = append(notes, note)
		}
		return nil
	})
	return notes, err
}

func (s *BoltNoteStore) Update(note domain.Note) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(note.ID)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, note.ID)
		}
		return putNote(b, note)
	})
}

func (s *BoltNoteStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

// DeleteAll removes every note and returns how many were removed.
func (s *BoltNoteStore) DeleteAll() (int, error) {
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketNotes).Stats().KeyN
		if err := tx.DeleteBucket(bucketNotes); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketNotes)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *BoltNoteStore) Close() error {
	return s.db.Close()
}

func putNote(b *bbolt.Bucket, note domain.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return err
	}
	return b.Put([]byte(note.ID), data)
}
