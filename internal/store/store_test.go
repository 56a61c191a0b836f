package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestKeyEncode(t *testing.T) {
	a := Key{{Name: "normalized", Value: "lacteos"}, {Name: "group", Value: "Marca"}}
	b := Key{{Name: "group", Value: "Marca"}, {Name: "normalized", Value: "lacteos"}}

	assert.Equal(t, a.Encode(), b.Encode())
	assert.Equal(t, `{"group":"Marca","normalized":"lacteos"}`, a.Encode())
	assert.NotEqual(t, a.Encode(), Key{{Name: "group", Value: "Color"}, {Name: "normalized", Value: "lacteos"}}.Encode())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	key := Key{{Name: "normalized", Value: "lacteos"}}

	t.Run("upsert replaces", func(t *testing.T) {
		s := NewMemoryStore()

		require.NoError(t, s.UpsertByKey(ctx, "raw", key, doc{Name: "a", Value: 1}))
		require.NoError(t, s.UpsertByKey(ctx, "raw", key, doc{Name: "a", Value: 2}))

		var got doc
		ok, err := s.Decode("raw", key, &got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, doc{Name: "a", Value: 2}, got)
		assert.Equal(t, 1, s.Count("raw"))
	})

	t.Run("insert appends", func(t *testing.T) {
		s := NewMemoryStore()

		require.NoError(t, s.Insert(ctx, "events", doc{Name: "a"}))
		require.NoError(t, s.Insert(ctx, "events", doc{Name: "a"}))
		assert.Equal(t, 2, s.Count("events"))
	})

	t.Run("rejects empty key and collection", func(t *testing.T) {
		s := NewMemoryStore()

		assert.Error(t, s.UpsertByKey(ctx, "raw", nil, doc{}))
		assert.Error(t, s.UpsertByKey(ctx, "", key, doc{}))
		assert.Error(t, s.Insert(ctx, "", doc{}))
	})

	t.Run("transaction applies nothing on failure", func(t *testing.T) {
		s := NewMemoryStore()
		errBoom := errors.New("boom")

		err := s.InTx(ctx, func(tx DocumentStore) error {
			require.NoError(t, tx.UpsertByKey(ctx, "raw", key, doc{Name: "a"}))
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)
		assert.Zero(t, s.Count("raw"))

		err = s.InTx(ctx, func(tx DocumentStore) error {
			if err := tx.UpsertByKey(ctx, "raw", key, doc{Name: "b"}); err != nil {
				return err
			}
			return tx.Insert(ctx, "events", doc{Name: "b"})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, s.Count("raw"))
		assert.Equal(t, 1, s.Count("events"))
	})

	t.Run("raw json passes through", func(t *testing.T) {
		s := NewMemoryStore()

		require.NoError(t, s.UpsertByKey(ctx, "raw", key, json.RawMessage(`{"name":"x"}`)))
		body, ok := s.Get("raw", key)
		require.True(t, ok)
		assert.JSONEq(t, `{"name":"x"}`, string(body))
		assert.Equal(t, []string{key.Encode()}, s.Keys("raw"))
	})
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	key := Key{{Name: "category_key", Value: "lacteos"}, {Name: "group_key", Value: "marca"}}

	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	t.Run("upsert replaces", func(t *testing.T) {
		require.NoError(t, s.UpsertByKey(ctx, "normalized", key, doc{Name: "marca", Value: 1}))
		require.NoError(t, s.UpsertByKey(ctx, "normalized", key, doc{Name: "marca", Value: 3}))

		body, err := s.Get(ctx, "normalized", key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"marca","value":3}`, string(body))

		n, err := s.Count(ctx, "normalized")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("missing document", func(t *testing.T) {
		body, err := s.Get(ctx, "normalized", Key{{Name: "category_key", Value: "nada"}})
		require.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("insert never conflicts", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, "log", doc{Name: "a"}))
		require.NoError(t, s.Insert(ctx, "log", doc{Name: "a"}))

		n, err := s.Count(ctx, "log")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		errBoom := errors.New("boom")

		err := s.InTx(ctx, func(tx DocumentStore) error {
			if err := tx.UpsertByKey(ctx, "tx", key, doc{Name: "a"}); err != nil {
				return err
			}
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		n, err := s.Count(ctx, "tx")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
