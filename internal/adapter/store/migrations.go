package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version, or 0 for a fresh database.
func (s *BoltNoteStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &version); err != nil {
			version = 1
		}
		return nil
	})
	return version, err
}

func (s *BoltNoteStore) setSchemaVersion(tx *bbolt.Tx, version int) error {
	data, err := json.Marshal(version)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
}

// Migrate upgrades the database one version at a time. A database written by
// a newer release is refused rather than rewritten.
func (s *BoltNoteStore) Migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("notes database created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	for v := version; v < CurrentSchemaVersion; v++ {
		err := s.db.Update(func(tx *bbolt.Tx) error {
			if err := runMigration(tx, v, v+1); err != nil {
				return err
			}
			return s.setSchemaVersion(tx, v+1)
		})
		if err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return nil
}

func runMigration(tx *bbolt.Tx, from, to int) error {
	switch {
	case from == 0 && to == 1:
		return nil
	case from == 1 && to == 2:
		// v1 notes only carried updated_at.
		return backfillCreatedAt(tx)
	default:
		return nil
	}
}

func backfillCreatedAt(tx *bbolt.Tx) error {
	b := tx.Bucket(bucketNotes)

	var pending []domain.Note
	err := b.ForEach(func(k, v []byte) error {
		var note domain.Note
		if err := json.Unmarshal(v, &note); err != nil {
			return fmt.Errorf("failed to decode note %s: %w", k, err)
		}
		if note.CreatedAt.IsZero() {
			note.CreatedAt = note.UpdatedAt
			pending = append(pending, note)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, note := range pending {
		if err := putNote(b, note); err != nil {
			return err
		}
	}
	return nil
}
