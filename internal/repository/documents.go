package repository

import (
	"sort"
	"time"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/normalize"
)

// Documents are the four layers derived from one taxonomy.
type Documents struct {
	RawCategory domain.RawCategoryDocument
	RawGroups   []domain.RawGroupDocument
	Normalized  []domain.NormalizedDocument
	Metadata    domain.RunMetadataDocument
}

// BuildDocuments maps taxonomy to its documents. Counts in every layer come
// from the same groups. Normalized options are deduplicated and sorted, and
// raw groups sharing a normalized name end up in one normalized document.
func BuildDocuments(taxonomy *domain.Taxonomy, site, version string, now time.Time) Documents {
	category := taxonomy.Category
	categoryKey := category.Key()
	groups := taxonomy.Groups()

	docs := Documents{
		RawCategory: domain.RawCategoryDocument{
			Site:       site,
			Category:   category.Name,
			Normalized: categoryKey,
			URL:        category.URL,
			Timestamp:  now,
			Filters:    groups,
		},
		RawGroups:  make([]domain.RawGroupDocument, 0, len(groups)),
		Normalized: make([]domain.NormalizedDocument, 0, len(groups)),
	}

	meta := domain.RunMetadataDocument{
		Site:           site,
		Category:       category.Name,
		CategoryKey:    categoryKey,
		Timestamp:      now,
		GroupsDetected: len(groups),
		Groups:         make([]domain.GroupSummary, 0, len(groups)),
		Status:         domain.MetadataStatusSuccess,
		VersionScraper: version,
		URL:            category.URL,
		Errors:         []string{},
	}

	normalized := make(map[string]int, len(groups))
	labels := make([]map[string]struct{}, 0, len(groups))

	for _, g := range groups {
		docs.RawGroups = append(docs.RawGroups, domain.RawGroupDocument{
			Site:       site,
			Category:   category.Name,
			Normalized: categoryKey,
			Group:      g.Name,
			Options:    g.Options,
			URL:        category.URL,
			Timestamp:  now,
		})

		groupKey := normalize.GroupKey(g.Name)
		meta.Groups = append(meta.Groups, domain.GroupSummary{
			Group:       g.Name,
			GroupKey:    groupKey,
			OptionCount: len(g.Options),
		})
		meta.TotalOptions += len(g.Options)

		i, ok := normalized[groupKey]
		if !ok {
			i = len(docs.Normalized)
			normalized[groupKey] = i
			labels = append(labels, make(map[string]struct{}))
			docs.Normalized = append(docs.Normalized, domain.NormalizedDocument{
				Site:        site,
				Category:    category.Name,
				CategoryKey: categoryKey,
				Group:       g.Name,
				GroupKey:    groupKey,
				URL:         category.URL,
				Timestamp:   now,
			})
		}
		for _, opt := range g.Options {
			if label := normalize.OptionLabel(opt.Label); label != "" {
				labels[i][label] = struct{}{}
			}
		}
	}

	for i := range docs.Normalized {
		options := make([]string, 0, len(labels[i]))
		for label := range labels[i] {
			options = append(options, label)
		}
		sort.Strings(options)
		docs.Normalized[i].Options = options
	}

	docs.Metadata = meta
	return docs
}

// BuildRunSummary maps a run report to its history document.
func BuildRunSummary(report *domain.RunReport) domain.RunSummaryDocument {
	tally := report.Tally()

	doc := domain.RunSummaryDocument{
		Site:       report.Site,
		Version:    report.Version,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Succeeded:  tally.Succeeded,
		Failed:     tally.Failed,
		Pending:    tally.Pending,
		Total:      tally.Total,
		Stopped:    report.Stopped,
		Categories: make([]domain.CategorySummary, 0, len(report.Results)),
	}
	if report.Err != nil {
		doc.Error = report.Err.Error()
	}

	for _, r := range report.Results {
		summary := domain.CategorySummary{
			Category:    r.Category.Name,
			CategoryKey: r.Category.Key(),
			Status:      r.Status.String(),
			Groups:      r.Groups,
			Options:     r.Options,
		}
		if r.Err != nil {
			summary.Error = r.Err.Error()
		}
		doc.Categories = append(doc.Categories, summary)
	}

	return doc
}
