// Package postgres implements storage.Backend on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"datagate/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
)`

// undefinedTable is the SQLSTATE PostgreSQL reports before EnsureSchema ran.
const undefinedTable = "42P01"

// Backend stores every collection in a single kv_entries table.
type Backend struct {
	db *sql.DB
}

// Open connects to PostgreSQL using the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// EnsureSchema creates the kv_entries table when missing.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select kv entry: %w", describe(err))
	}
	return value, nil
}

func (b *Backend) Put(ctx context.Context, collection, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (collection, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := b.db.ExecContext(ctx, query, collection, key, value); err != nil {
		return fmt.Errorf("upsert kv entry: %w", describe(err))
	}
	return nil
}

// describe adds a hint for the one server error operators hit in practice.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("kv_entries missing, run with schema bootstrap: %w", err)
	}
	return err
}
