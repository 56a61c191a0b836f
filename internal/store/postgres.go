package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	doc_key    TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, doc_key)
)`

const postgresUpsert = `
INSERT INTO documents (collection, doc_key, body, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (collection, doc_key)
DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

var _ interface {
	DocumentStore
	Transactor
} = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore makes sure the documents table exists.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) UpsertByKey(ctx context.Context, collection string, key Key, doc any) error {
	return pgExec{s.db}.UpsertByKey(ctx, collection, key, doc)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc any) error {
	return pgExec{s.db}.Insert(ctx, collection, doc)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(DocumentStore) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(pgExec{tx})
	})
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type pgExec struct {
	db pgExecer
}

func (e pgExec) UpsertByKey(ctx context.Context, collection string, key Key, doc any) error {
	if err := validateKey(collection, key); err != nil {
		return err
	}
	return e.write(ctx, collection, key.Encode(), doc)
}

func (e pgExec) Insert(ctx context.Context, collection string, doc any) error {
	if err := validate(collection); err != nil {
		return err
	}
	return e.write(ctx, collection, insertKey(), doc)
}

func (e pgExec) write(ctx context.Context, collection, key string, doc any) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	if _, err := e.db.Exec(ctx, postgresUpsert, collection, key, string(body)); err != nil {
		return fmt.Errorf("failed to write document to %s: %w", collection, err)
	}
	return nil
}
