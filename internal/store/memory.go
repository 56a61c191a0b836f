package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

var _ interface {
	DocumentStore
	Transactor
} = (*MemoryStore)(nil)

// MemoryStore keeps documents in process. It is used for dry runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	inserted    map[string][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string][]byte),
		inserted:    make(map[string][][]byte),
	}
}

func (s *MemoryStore) UpsertByKey(ctx context.Context, collection string, key Key, doc any) error {
	if err := validateKey(collection, key); err != nil {
		return err
	}
	body, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(collection, key.Encode(), body)
	return ctx.Err()
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc any) error {
	if err := validate(collection); err != nil {
		return err
	}
	body, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted[collection] = append(s.inserted[collection], body)
	return ctx.Err()
}

// InTx buffers the writes of fn and applies them only if fn succeeds.
func (s *MemoryStore) InTx(ctx context.Context, fn func(DocumentStore) error) error {
	tx := &memoryTx{}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range tx.writes {
		if w.key == "" {
			s.inserted[w.collection] = append(s.inserted[w.collection], w.body)
			continue
		}
		s.upsert(w.collection, w.key, w.body)
	}
	return nil
}

// Get returns the raw document stored under key.
func (s *MemoryStore) Get(collection string, key Key) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.collections[collection][key.Encode()]
	return body, ok
}

// Decode unmarshals the document stored under key into dest.
func (s *MemoryStore) Decode(collection string, key Key, dest any) (bool, error) {
	body, ok := s.Get(collection, key)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(body, dest)
}

// Count is the number of documents in collection, keyed and inserted.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]) + len(s.inserted[collection])
}

// Keys returns the encoded keys of collection in sorted order.
func (s *MemoryStore) Keys(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.collections[collection]))
	for k := range s.collections[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) upsert(collection, key string, body []byte) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	docs[key] = body
}

type memoryWrite struct {
	collection string
	key        string
	body       []byte
}

type memoryTx struct {
	writes []memoryWrite
}

func (t *memoryTx) UpsertByKey(ctx context.Context, collection string, key Key, doc any) error {
	if err := validateKey(collection, key); err != nil {
		return err
	}
	body, err := encode(doc)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, memoryWrite{collection: collection, key: key.Encode(), body: body})
	return ctx.Err()
}

func (t *memoryTx) Insert(ctx context.Context, collection string, doc any) error {
	if err := validate(collection); err != nil {
		return err
	}
	body, err := encode(doc)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, memoryWrite{collection: collection, body: body})
	return ctx.Err()
}
