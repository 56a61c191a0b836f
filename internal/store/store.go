// Package store persists pipeline documents. The pipeline only ever writes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Field is one named component of a document key.
type Field struct {
	Name  string
	Value string
}

// Key identifies a document within a collection for upserts.
type Key []Field

// Encode renders the key as a JSON object with sorted field names, so equal
// keys always encode to the same string.
func (k Key) Encode() string {
	fields := make(map[string]string, len(k))
	for _, f := range k {
		fields[f.Name] = f.Value
	}

	// A map of strings always marshals.
	b, _ := json.Marshal(fields)
	return string(b)
}

type DocumentStore interface {
	// UpsertByKey replaces the document stored under key, or inserts it.
	UpsertByKey(ctx context.Context, collection string, key Key, doc any) error
	Insert(ctx context.Context, collection string, doc any) error
}

// Transactor is implemented by stores that can apply several writes
// atomically.
type Transactor interface {
	InTx(ctx context.Context, fn func(DocumentStore) error) error
}

func encode(doc any) ([]byte, error) {
	switch d := doc.(type) {
	case json.RawMessage:
		return d, nil
	case []byte:
		return d, nil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return body, nil
}

func validate(collection string) error {
	if collection == "" {
		return fmt.Errorf("collection name is empty")
	}
	return nil
}

func validateKey(collection string, key Key) error {
	if err := validate(collection); err != nil {
		return err
	}
	if len(key) == 0 {
		return fmt.Errorf("document key for %s is empty", collection)
	}
	return nil
}
