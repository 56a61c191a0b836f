package container

import (
	"fmt"

	"taxonomy/scraper/internal/config"
	"taxonomy/scraper/internal/discovery"
	"taxonomy/scraper/internal/extractor"
	"taxonomy/scraper/internal/repository"
	"taxonomy/scraper/internal/selector"
	"taxonomy/scraper/internal/service"

	"dario.cat/mergo"
)

// SiteFromConfig turns a configured site into the engine's site record.
func SiteFromConfig(name string, cfg config.SiteConfig) (service.Site, error) {
	collections := repository.Collections{
		RawCategory: cfg.Collections.RawCategory,
		RawGroup:    cfg.Collections.RawGroup,
		Normalized:  cfg.Collections.Normalized,
		Metadata:    cfg.Collections.Metadata,
		RunHistory:  cfg.Collections.RunHistory,
	}
	if err := mergo.Merge(&collections, repository.DefaultCollections(name)); err != nil {
		return service.Site{}, fmt.Errorf("site %s: %w", name, err)
	}

	t := cfg.Timings

	return service.Site{
		Name:      name,
		HomeURL:   cfg.HomeURL,
		Selectors: selector.ParseSet(cfg.Selectors),
		Discovery: discovery.Options{
			Domain:            cfg.Domain,
			MenuAction:        cfg.MenuAction,
			IgnoredCategories: cfg.IgnoredCategories,
			MenuTimeout:       t.MenuTimeout,
			Settle:            t.Settle,
		},
		Extraction: extractor.Options{
			RequireCount:        cfg.RequireCount,
			ExpandGroups:        cfg.ExpandGroups,
			GroupScope:          cfg.GroupScope,
			IgnoredGroups:       cfg.IgnoredGroups,
			Passes:              cfg.Passes,
			ContainerTimeout:    t.ContainerTimeout,
			RevealWait:          t.RevealWait,
			RevealMaxIterations: t.RevealMaxIterations,
			Settle:              t.Settle,
		},
		Collections:         collections,
		PageLoad:            t.PageLoad,
		Settle:              t.Settle,
		ReestablishAttempts: t.ReestablishAttempts,
		ReestablishDelay:    t.ReestablishDelay,
	}, nil
}
