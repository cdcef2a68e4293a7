package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
)

// FileStore keeps one catalog as a JSON array file. A missing file is
// an empty catalog; invalid JSON or a non-array document is a
// PersistenceError. Writes rewrite the whole file, so concurrent
// writers need external mutual exclusion; within one batch invocation
// the read-modify-write cycle is single-threaded.
type FileStore[T Record] struct {
	path string
}

// NewFileStore returns a store backed by the JSON array file at path.
func NewFileStore[T Record](path string) *FileStore[T] {
	return &FileStore[T]{path: path}
}

// Load parses the full catalog. Missing file yields an empty sequence.
func (s *FileStore[T]) Load(_ context.Context) ([]T, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Store: s.path, Err: err}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &PersistenceError{Store: s.path, Err: err}
	}
	return records, nil
}

// AppendUnique writes existing plus the not-yet-present records back to
// the file as an indented JSON array with a trailing newline.
func (s *FileStore[T]) AppendUnique(_ context.Context, existing, records []T) ([]T, error) {
	appended, err := appendUnique(existing, records)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(appended, "", "  ")
	if err != nil {
		return nil, &PersistenceError{Store: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return nil, &PersistenceError{Store: s.path, Err: err}
	}
	return appended, nil
}
