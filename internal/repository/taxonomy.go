package repository

import (
	"context"
	"fmt"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/store"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Collections names the four document layers of one site.
type Collections struct {
	RawCategory string
	RawGroup    string
	Normalized  string
	Metadata    string
	RunHistory  string
}

func DefaultCollections(site string) Collections {
	return Collections{
		RawCategory: site + "_raw_categories",
		RawGroup:    site + "_raw_groups",
		Normalized:  site + "_normalized_groups",
		Metadata:    site + "_run_metadata",
		RunHistory:  site + "_run_history",
	}
}

type TaxonomyRepository interface {
	SaveTaxonomy(ctx context.Context, taxonomy *domain.Taxonomy) error
	RecordRun(ctx context.Context, report *domain.RunReport) error
}

type taxonomyRepository struct {
	store       store.DocumentStore
	site        string
	version     string
	collections Collections
	clock       clock.Clock
}

func NewTaxonomyRepository(st store.DocumentStore, site, version string, collections Collections, clk clock.Clock) TaxonomyRepository {
	return &taxonomyRepository{
		store:       st,
		site:        site,
		version:     version,
		collections: collections,
		clock:       clk,
	}
}

// SaveTaxonomy upserts the four layers built from taxonomy. When the store
// supports transactions the layers are written together or not at all.
func (r *taxonomyRepository) SaveTaxonomy(ctx context.Context, taxonomy *domain.Taxonomy) error {
	docs := BuildDocuments(taxonomy, r.site, r.version, r.clock.Now().UTC())

	write := func(s store.DocumentStore) error {
		return r.write(ctx, s, docs)
	}

	var err error
	if tx, ok := r.store.(store.Transactor); ok {
		err = tx.InTx(ctx, write)
	} else {
		err = write(r.store)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, taxonomy.Category.Name, err)
	}

	log.Debugf("Saved %s: %d raw groups, %d normalized groups", docs.RawCategory.Normalized, len(docs.RawGroups), len(docs.Normalized))
	return nil
}

// RecordRun appends the summary of a finished run to the run history.
func (r *taxonomyRepository) RecordRun(ctx context.Context, report *domain.RunReport) error {
	if err := r.store.Insert(ctx, r.collections.RunHistory, BuildRunSummary(report)); err != nil {
		return fmt.Errorf("%w: run history: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *taxonomyRepository) write(ctx context.Context, s store.DocumentStore, docs Documents) error {
	raw := docs.RawCategory
	if err := s.UpsertByKey(ctx, r.collections.RawCategory, RawCategoryKey(raw), raw); err != nil {
		return fmt.Errorf("raw category: %w", err)
	}

	for _, g := range docs.RawGroups {
		if err := s.UpsertByKey(ctx, r.collections.RawGroup, RawGroupKey(g), g); err != nil {
			return fmt.Errorf("raw group %s: %w", g.Group, err)
		}
	}

	for _, n := range docs.Normalized {
		if err := s.UpsertByKey(ctx, r.collections.Normalized, NormalizedKey(n), n); err != nil {
			return fmt.Errorf("normalized group %s: %w", n.GroupKey, err)
		}
	}

	meta := docs.Metadata
	if err := s.UpsertByKey(ctx, r.collections.Metadata, MetadataKey(meta), meta); err != nil {
		return fmt.Errorf("run metadata: %w", err)
	}

	return nil
}

func RawCategoryKey(d domain.RawCategoryDocument) store.Key {
	return store.Key{{Name: "normalized", Value: d.Normalized}}
}

func RawGroupKey(d domain.RawGroupDocument) store.Key {
	return store.Key{{Name: "normalized", Value: d.Normalized}, {Name: "group", Value: d.Group}}
}

func NormalizedKey(d domain.NormalizedDocument) store.Key {
	return store.Key{{Name: "category_key", Value: d.CategoryKey}, {Name: "group_key", Value: d.GroupKey}}
}

func MetadataKey(d domain.RunMetadataDocument) store.Key {
	return store.Key{{Name: "category_key", Value: d.CategoryKey}, {Name: "version_scraper", Value: d.VersionScraper}}
}
