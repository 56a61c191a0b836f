package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	doc_key    TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (collection, doc_key)
)`

const sqliteUpsert = `
INSERT INTO documents (collection, doc_key, body, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (collection, doc_key)
DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`

var _ interface {
	DocumentStore
	Transactor
} = (*SQLiteStore)(nil)

// SQLiteStore keeps every collection in one table of a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// Each connection to ":memory:" is a separate database, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) UpsertByKey(ctx context.Context, collection string, key Key, doc any) error {
	return sqliteExec{s.db}.UpsertByKey(ctx, collection, key, doc)
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc any) error {
	return sqliteExec{s.db}.Insert(ctx, collection, doc)
}

func (s *SQLiteStore) InTx(ctx context.Context, fn func(DocumentStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(sqliteExec{tx}); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get returns the raw document stored under key, or nil when there is none.
func (s *SQLiteStore) Get(ctx context.Context, collection string, key Key) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND doc_key = ?`,
		collection, key.Encode(),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document from %s: %w", collection, err)
	}
	return []byte(body), nil
}

func (s *SQLiteStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", collection, err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqliteExec struct {
	db sqlExecer
}

func (e sqliteExec) UpsertByKey(ctx context.Context, collection string, key Key, doc any) error {
	if err := validateKey(collection, key); err != nil {
		return err
	}
	return e.write(ctx, collection, key.Encode(), doc)
}

func (e sqliteExec) Insert(ctx context.Context, collection string, doc any) error {
	if err := validate(collection); err != nil {
		return err
	}
	return e.write(ctx, collection, insertKey(), doc)
}

func (e sqliteExec) write(ctx context.Context, collection, key string, doc any) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	_, err = e.db.ExecContext(ctx, sqliteUpsert, collection, key, string(body), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write document to %s: %w", collection, err)
	}
	return nil
}

// insertKey gives inserted documents a unique key of their own.
func insertKey() string {
	return "insert:" + uuid.NewString()
}
