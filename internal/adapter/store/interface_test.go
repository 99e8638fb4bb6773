package store

import "docqa/internal/port"

var _ port.NoteStore = (*BoltNoteStore)(nil)
