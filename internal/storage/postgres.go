package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one catalog in a sku-keyed jsonb table, offering
// the same load/append-unique contract as the file store. Insertion
// order is preserved through a serial id column so Load returns records
// in append order.
type PostgresStore[T Record] struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore returns a store over the given table. The table name
// comes from configuration, not user input, and is interpolated into
// the statements directly.
func NewPostgresStore[T Record](pool *pgxpool.Pool, table string) *PostgresStore[T] {
	return &PostgresStore[T]{pool: pool, table: table}
}

// Init creates the backing table when it does not exist yet.
func (s *PostgresStore[T]) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		doc JSONB NOT NULL
	)`, s.table)
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return &PersistenceError{Store: s.table, Err: err}
	}
	return nil
}

// Load returns all records in insertion order.
func (s *PostgresStore[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT doc FROM %s ORDER BY id", s.table))
	if err != nil {
		return nil, &PersistenceError{Store: s.table, Err: err}
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, &PersistenceError{Store: s.table, Err: err}
		}
		var record T
		if err := json.Unmarshal(doc, &record); err != nil {
			return nil, &PersistenceError{Store: s.table, Err: err}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Store: s.table, Err: err}
	}
	return records, nil
}

// AppendUnique inserts the not-yet-present records in one transaction.
// Records whose sku already exists are skipped both against the passed
// existing snapshot and, via ON CONFLICT DO NOTHING, against rows
// written by another process since that snapshot was taken.
func (s *PostgresStore[T]) AppendUnique(ctx context.Context, existing, records []T) ([]T, error) {
	appended, err := appendUnique(existing, records)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &PersistenceError{Store: s.table, Err: err}
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf("INSERT INTO %s (sku, doc) VALUES ($1, $2) ON CONFLICT (sku) DO NOTHING", s.table)
	for _, r := range appended[len(existing):] {
		doc, err := json.Marshal(r)
		if err != nil {
			return nil, &PersistenceError{Store: s.table, Err: err}
		}
		if _, err := tx.Exec(ctx, stmt, r.Key(), doc); err != nil {
			return nil, &PersistenceError{Store: s.table, Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &PersistenceError{Store: s.table, Err: err}
	}
	return appended, nil
}
