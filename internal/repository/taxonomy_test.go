package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/mock"
	"taxonomy/scraper/internal/store"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

func newTaxonomy() *domain.Taxonomy {
	tax := domain.NewTaxonomy(domain.Category{Name: "Lácteos y Quesos", URL: "https://shop.example.com/lacteos"})
	tax.Merge("Marcas", []domain.FilterOption{
		{Label: "Sancor", Count: intPtr(4)},
		{Label: "La Serenísima", Count: intPtr(9)},
		{Label: "Sancor", Count: intPtr(4)},
	})
	tax.Merge("Marca", []domain.FilterOption{{Label: "  ilolay ", Count: intPtr(2)}})
	tax.Merge("Tamaño", []domain.FilterOption{})
	return tax
}

func TestBuildDocuments(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	docs := BuildDocuments(newTaxonomy(), "dia", "dia_scraper_v1.0", now)

	t.Run("raw category", func(t *testing.T) {
		raw := docs.RawCategory
		assert.Equal(t, "lacteos_y_quesos", raw.Normalized)
		assert.Equal(t, "Lácteos y Quesos", raw.Category)
		require.Len(t, raw.Filters, 3)
		assert.Len(t, raw.Filters[0].Options, 3)
	})

	t.Run("raw groups keep duplicates", func(t *testing.T) {
		require.Len(t, docs.RawGroups, 3)
		assert.Equal(t, "Marcas", docs.RawGroups[0].Group)
		assert.Len(t, docs.RawGroups[0].Options, 3)
	})

	t.Run("normalized groups are unioned, deduplicated and sorted", func(t *testing.T) {
		want := []domain.NormalizedDocument{
			{
				Site:        "dia",
				Category:    "Lácteos y Quesos",
				CategoryKey: "lacteos_y_quesos",
				Group:       "Marcas",
				GroupKey:    "marca",
				Options:     []string{"ilolay", "la serenisima", "sancor"},
				URL:         "https://shop.example.com/lacteos",
				Timestamp:   now,
			},
			{
				Site:        "dia",
				Category:    "Lácteos y Quesos",
				CategoryKey: "lacteos_y_quesos",
				Group:       "Tamaño",
				GroupKey:    "tamano",
				Options:     []string{},
				URL:         "https://shop.example.com/lacteos",
				Timestamp:   now,
			},
		}
		if diff := cmp.Diff(want, docs.Normalized); diff != "" {
			t.Errorf("normalized documents mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("metadata counts match the raw layers", func(t *testing.T) {
		meta := docs.Metadata
		assert.Equal(t, len(docs.RawGroups), meta.GroupsDetected)

		total := 0
		for i, g := range docs.RawGroups {
			total += len(g.Options)
			assert.Equal(t, len(g.Options), meta.Groups[i].OptionCount)
		}
		assert.Equal(t, total, meta.TotalOptions)
		assert.Equal(t, 4, meta.TotalOptions)
		assert.Equal(t, domain.MetadataStatusSuccess, meta.Status)
		assert.Equal(t, "dia_scraper_v1.0", meta.VersionScraper)
		assert.NotNil(t, meta.Errors)
		assert.Empty(t, meta.Errors)
	})
}

func TestSaveTaxonomy(t *testing.T) {
	ctx := context.Background()
	cols := DefaultCollections("dia")

	t.Run("writes four layers", func(t *testing.T) {
		st := store.NewMemoryStore()
		repo := NewTaxonomyRepository(st, "dia", "v1", cols, clock.NewMock())

		require.NoError(t, repo.SaveTaxonomy(ctx, newTaxonomy()))

		assert.Equal(t, 1, st.Count(cols.RawCategory))
		assert.Equal(t, 3, st.Count(cols.RawGroup))
		assert.Equal(t, 2, st.Count(cols.Normalized))
		assert.Equal(t, 1, st.Count(cols.Metadata))

		var meta domain.RunMetadataDocument
		ok, err := st.Decode(cols.Metadata, store.Key{
			{Name: "category_key", Value: "lacteos_y_quesos"},
			{Name: "version_scraper", Value: "v1"},
		}, &meta)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 3, meta.GroupsDetected)
	})

	t.Run("rerun is idempotent and new tags keep old metadata", func(t *testing.T) {
		st := store.NewMemoryStore()
		clk := clock.NewMock()

		require.NoError(t, NewTaxonomyRepository(st, "dia", "v1", cols, clk).SaveTaxonomy(ctx, newTaxonomy()))
		first := snapshot(t, st, cols.Normalized)

		clk.Add(time.Hour)
		require.NoError(t, NewTaxonomyRepository(st, "dia", "v1", cols, clk).SaveTaxonomy(ctx, newTaxonomy()))
		second := snapshot(t, st, cols.Normalized)

		assert.Equal(t, 2, st.Count(cols.Normalized))
		assert.Equal(t, 1, st.Count(cols.Metadata))
		for key, body := range first {
			assert.NotEqual(t, body, second[key], "timestamp should change")
			assert.Equal(t, withoutTimestamp(t, body), withoutTimestamp(t, second[key]))
		}

		require.NoError(t, NewTaxonomyRepository(st, "dia", "v2", cols, clk).SaveTaxonomy(ctx, newTaxonomy()))
		assert.Equal(t, 2, st.Count(cols.Metadata))
		assert.Equal(t, 2, st.Count(cols.Normalized))
	})

	t.Run("same instant gives byte-identical documents", func(t *testing.T) {
		a, b := store.NewMemoryStore(), store.NewMemoryStore()
		clk := clock.NewMock()

		require.NoError(t, NewTaxonomyRepository(a, "dia", "v1", cols, clk).SaveTaxonomy(ctx, newTaxonomy()))
		require.NoError(t, NewTaxonomyRepository(b, "dia", "v1", cols, clk).SaveTaxonomy(ctx, newTaxonomy()))

		assert.Equal(t, snapshot(t, a, cols.Normalized), snapshot(t, b, cols.Normalized))
	})

	t.Run("store failure is a persistence failure", func(t *testing.T) {
		errDown := errors.New("connection refused")
		var writes int
		st := &mock.Store{
			UpsertByKeyFn: func(_ context.Context, collection string, _ store.Key, _ any) error {
				writes++
				if collection == cols.Normalized {
					return errDown
				}
				return nil
			},
		}

		err := NewTaxonomyRepository(st, "dia", "v1", cols, clock.NewMock()).SaveTaxonomy(ctx, newTaxonomy())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.ErrorIs(t, err, errDown)
		// raw category + 3 raw groups + the failing normalized write
		assert.Equal(t, 5, writes)
	})

	t.Run("transactional store keeps nothing on failure", func(t *testing.T) {
		st := store.NewMemoryStore()
		repo := NewTaxonomyRepository(st, "dia", "v1", Collections{
			RawCategory: cols.RawCategory,
			RawGroup:    cols.RawGroup,
			Normalized:  cols.Normalized,
		}, clock.NewMock())

		err := repo.SaveTaxonomy(ctx, newTaxonomy())
		require.ErrorIs(t, err, domain.ErrPersistence)
		assert.Zero(t, st.Count(cols.RawCategory))
		assert.Zero(t, st.Count(cols.Normalized))
	})
}

func snapshot(t *testing.T, st *store.MemoryStore, collection string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	for _, key := range st.Keys(collection) {
		var k map[string]string
		require.NoError(t, json.Unmarshal([]byte(key), &k))

		var fields store.Key
		for name, value := range k {
			fields = append(fields, store.Field{Name: name, Value: value})
		}
		body, ok := st.Get(collection, fields)
		require.True(t, ok)
		out[key] = string(body)
	}
	return out
}

func withoutTimestamp(t *testing.T, body string) map[string]any {
	t.Helper()

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	delete(doc, "timestamp")
	return doc
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	cols := DefaultCollections("dia")
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	report := &domain.RunReport{
		Site:    "dia",
		Version: "dia_scraper_v1.0",
		Results: []domain.CategoryResult{
			{Category: domain.Category{Name: "Lácteos"}, Status: domain.StatusSucceeded, Groups: 3, Options: 21},
			{Category: domain.Category{Name: "Bebidas"}, Status: domain.StatusFailed, Err: errors.New("navigation failed")},
			{Category: domain.Category{Name: "Almacén"}, Status: domain.StatusPending},
		},
		Stopped:    true,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	}

	t.Run("summary mirrors the report", func(t *testing.T) {
		want := domain.RunSummaryDocument{
			Site:       "dia",
			Version:    "dia_scraper_v1.0",
			StartedAt:  started,
			FinishedAt: started.Add(time.Minute),
			Succeeded:  1,
			Failed:     1,
			Pending:    1,
			Total:      3,
			Stopped:    true,
			Categories: []domain.CategorySummary{
				{Category: "Lácteos", CategoryKey: "lacteos", Status: "succeeded", Groups: 3, Options: 21},
				{Category: "Bebidas", CategoryKey: "bebidas", Status: "failed", Error: "navigation failed"},
				{Category: "Almacén", CategoryKey: "almacen", Status: "pending"},
			},
		}
		if diff := cmp.Diff(want, BuildRunSummary(report)); diff != "" {
			t.Errorf("BuildRunSummary mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("every run is appended", func(t *testing.T) {
		st := store.NewMemoryStore()
		repo := NewTaxonomyRepository(st, "dia", "dia_scraper_v1.0", cols, clock.NewMock())

		require.NoError(t, repo.RecordRun(ctx, report))
		require.NoError(t, repo.RecordRun(ctx, report))

		assert.Equal(t, 2, st.Count(cols.RunHistory))
		assert.Zero(t, st.Count(cols.Metadata))
	})

	t.Run("store failure is a persistence failure", func(t *testing.T) {
		errDown := errors.New("connection refused")
		var collection string
		st := &mock.Store{
			InsertFn: func(_ context.Context, c string, _ any) error {
				collection = c
				return errDown
			},
		}

		err := NewTaxonomyRepository(st, "dia", "v1", cols, clock.NewMock()).RecordRun(ctx, report)
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.ErrorIs(t, err, errDown)
		assert.Equal(t, "dia_run_history", collection)
	})
}
