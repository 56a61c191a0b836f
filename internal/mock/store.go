package mock

import (
	"context"

	"taxonomy/scraper/internal/store"
)

var _ store.DocumentStore = (*Store)(nil)

type Store struct {
	UpsertByKeyFn func(ctx context.Context, collection string, key store.Key, doc any) error
	InsertFn      func(ctx context.Context, collection string, doc any) error
}

func (s *Store) UpsertByKey(ctx context.Context, collection string, key store.Key, doc any) error {
	if s.UpsertByKeyFn == nil {
		return nil
	}
	return s.UpsertByKeyFn(ctx, collection, key, doc)
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, collection, doc)
}
