// Package storage persists catalog collections: ordered sequences of
// sku-keyed records with dedup-on-append semantics. Two interchangeable
// array-store backends exist (JSON file, Postgres) plus a MinIO object
// store for the notification-driven worker.
package storage

import (
	"context"
	"fmt"
)

// Record is any catalog record addressable by its unique sku key.
type Record interface {
	Key() string
}

// Store is one catalog collection. Load returns the full ordered
// sequence (empty when the underlying store does not exist yet).
// AppendUnique persists existing plus the new records, skipping any
// record whose key is already present, and returns the full appended
// sequence. A record with a blank key is an error.
type Store[T Record] interface {
	Load(ctx context.Context) ([]T, error)
	AppendUnique(ctx context.Context, existing, records []T) ([]T, error)
}

// PersistenceError reports an unreadable or corrupt catalog store. It
// is fatal for the whole batch invocation: no partial write happens.
type PersistenceError struct {
	Store string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("catalog store %s: %v", e.Store, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// appendUnique merges records into existing, preserving order and
// skipping keys already seen. Shared by the file and Postgres stores.
func appendUnique[T Record](existing, records []T) ([]T, error) {
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		if key := r.Key(); key != "" {
			seen[key] = struct{}{}
		}
	}

	appended := make([]T, len(existing), len(existing)+len(records))
	copy(appended, existing)
	for _, r := range records {
		key := r.Key()
		if key == "" {
			return nil, fmt.Errorf("record missing sku key: %+v", r)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		appended = append(appended, r)
		seen[key] = struct{}{}
	}
	return appended, nil
}
