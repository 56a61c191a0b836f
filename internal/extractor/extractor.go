// Package extractor reads the filter groups and options of one category page.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/normalize"
	"taxonomy/scraper/internal/page"
	"taxonomy/scraper/internal/selector"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("taxonomy/scraper/internal/extractor")

const (
	GroupScopeContainer = "container"
	GroupScopePage      = "page"

	DefaultRevealMaxIterations = 50
)

type Options struct {
	// RequireCount drops options whose product count cannot be parsed.
	RequireCount bool
	// ExpandGroups clicks each group title before reading its panel.
	ExpandGroups bool
	// GroupScope is where group titles are searched: inside the filter
	// container (default) or anywhere on the page.
	GroupScope    string
	IgnoredGroups []string
	Passes        int

	ContainerTimeout    time.Duration
	RevealWait          time.Duration
	RevealMaxIterations int
	Settle              time.Duration
}

type Extractor struct {
	acc      page.Accessor
	resolver *selector.Resolver
	opts     Options
	ignored  map[string]struct{}
	clock    clock.Clock
}

func New(acc page.Accessor, resolver *selector.Resolver, opts Options, clk clock.Clock) *Extractor {
	if opts.Passes < 1 {
		opts.Passes = 1
	}
	if opts.RevealMaxIterations < 1 {
		opts.RevealMaxIterations = DefaultRevealMaxIterations
	}

	ignored := make(map[string]struct{}, len(opts.IgnoredGroups))
	for _, g := range opts.IgnoredGroups {
		ignored[normalize.Text(g)] = struct{}{}
	}

	return &Extractor{
		acc:      acc,
		resolver: resolver,
		opts:     opts,
		ignored:  ignored,
		clock:    clk,
	}
}

// Extract reads the taxonomy of the category the session is currently on.
// A page without a filter container yields an empty taxonomy. Failures of a
// single group or option only drop that unit. The error is non-nil only when
// ctx ends.
func (e *Extractor) Extract(ctx context.Context, category domain.Category) (*domain.Taxonomy, error) {
	ctx, span := tracer.Start(ctx, "extractor.Extract")
	defer span.End()
	span.SetAttributes(attribute.String("category", category.Name))

	taxonomy := domain.NewTaxonomy(category)

	container, err := e.resolver.Await(ctx, nil, selector.ConceptFilterContainer, e.opts.ContainerTimeout)
	if err != nil {
		log.Warnf("⚠️ No filter container on %s: %v", category.URL, err)
		return taxonomy, ctx.Err()
	}

	if err := e.acc.ScrollIntoView(ctx, container); err != nil {
		log.Debugf("Could not scroll filter container into view: %v", err)
	}

	result := e.reveal(ctx, container)
	if result.TimedOut {
		log.Warnf("⚠️ Filters of %s still growing after %d reveals, using what was revealed", category.Name, result.Reveals)
	}

	for pass := 0; pass < e.opts.Passes; pass++ {
		if err := ctx.Err(); err != nil {
			return taxonomy, err
		}
		e.collect(ctx, container, taxonomy)
	}

	span.SetAttributes(
		attribute.Int("groups", taxonomy.Len()),
		attribute.Int("options", taxonomy.OptionCount()),
	)
	log.Infof("📦 %s: %d groups, %d options", category.Name, taxonomy.Len(), taxonomy.OptionCount())

	return taxonomy, ctx.Err()
}

// RevealResult describes one run of the reveal loop.
type RevealResult struct {
	Reveals      int
	Measurements int
	TimedOut     bool
}

// reveal scrolls el to its end until its extent stops growing or the
// iteration cap is hit.
func (e *Extractor) reveal(ctx context.Context, el page.Element) RevealResult {
	var result RevealResult

	last, err := e.acc.Extent(ctx, el)
	if err != nil {
		log.Debugf("Could not measure filter container: %v", err)
		return result
	}
	result.Measurements++

	for i := 0; i < e.opts.RevealMaxIterations; i++ {
		if err := e.acc.ScrollToEnd(ctx, el); err != nil {
			log.Debugf("Reveal scroll failed: %v", err)
			return result
		}
		result.Reveals++

		if err := page.Pause(ctx, e.clock, e.opts.RevealWait); err != nil {
			return result
		}

		current, err := e.acc.Extent(ctx, el)
		if err != nil {
			log.Debugf("Could not measure filter container: %v", err)
			return result
		}
		result.Measurements++

		if current <= last {
			return result
		}
		last = current
	}

	result.TimedOut = true
	return result
}

func (e *Extractor) collect(ctx context.Context, container page.Element, taxonomy *domain.Taxonomy) {
	scope := container
	if e.opts.GroupScope == GroupScopePage {
		scope = nil
	}

	titles, _, err := e.resolver.ResolveAll(ctx, scope, selector.ConceptGroupTitle)
	if err != nil {
		log.Warnf("⚠️ No filter groups on %s: %v", taxonomy.Category.Name, err)
		return
	}

	for _, title := range titles {
		text, err := e.acc.Text(ctx, title)
		if err != nil {
			log.Warnf("⚠️ Skipping unreadable group title: %v", err)
			continue
		}

		name := strings.Join(strings.Fields(text), " ")
		key := normalize.Text(name)
		if key == "" {
			continue
		}
		if _, skip := e.ignored[key]; skip {
			log.Debugf("Ignoring group %q", name)
			continue
		}

		options, seen, err := e.group(ctx, title)
		if err != nil {
			log.Warnf("⚠️ Skipping group %q: %v", name, err)
			continue
		}
		if !seen {
			log.Debugf("Group %q has no options", name)
			continue
		}

		taxonomy.Merge(name, options)
	}
}

// group reads the options of one group. seen reports whether any row carried
// a label, before rows without a usable count were dropped.
func (e *Extractor) group(ctx context.Context, title page.Element) (options []domain.FilterOption, seen bool, err error) {
	if err := e.acc.ScrollIntoView(ctx, title); err != nil {
		log.Debugf("Could not scroll group title into view: %v", err)
	}

	if e.opts.ExpandGroups {
		if err := e.acc.Click(ctx, title); err != nil {
			log.Debugf("Could not expand group: %v", err)
		} else if err := page.Pause(ctx, e.clock, e.opts.Settle); err != nil {
			return nil, false, err
		}
	}

	panel, err := e.resolver.Nearest(ctx, title, selector.ConceptOptionPanel)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrUnitExtraction, err)
	}

	if err := e.showMore(ctx, panel); err != nil {
		return nil, false, err
	}

	rows, _, err := e.resolver.ResolveAll(ctx, panel, selector.ConceptOptionRow)
	if err != nil {
		return nil, false, nil
	}

	options = make([]domain.FilterOption, 0, len(rows))
	for _, row := range rows {
		opt, ok, err := e.option(ctx, row)
		if err != nil {
			log.Debugf("Skipping option row: %v", err)
			continue
		}
		if !ok {
			continue
		}
		seen = true

		if e.opts.RequireCount && opt.Count == nil {
			log.Debugf("Dropping option %q without count", opt.Label)
			continue
		}
		options = append(options, opt)
	}

	return options, seen, nil
}

// showMore activates the panel's "show more" control once, if it has one.
func (e *Extractor) showMore(ctx context.Context, panel page.Element) error {
	if !e.resolver.Has(selector.ConceptShowMore) {
		return nil
	}

	button, err := e.resolver.ResolveIn(ctx, panel, selector.ConceptShowMore)
	if err != nil {
		return nil
	}

	if err := e.acc.ScrollIntoView(ctx, button); err != nil {
		log.Debugf("Could not scroll show-more into view: %v", err)
	}
	if err := e.acc.Click(ctx, button); err != nil {
		log.Debugf("Show-more click failed: %v", err)
		return nil
	}

	return page.Pause(ctx, e.clock, e.opts.Settle)
}

// option reads one row. ok is false for rows without a label.
func (e *Extractor) option(ctx context.Context, row page.Element) (domain.FilterOption, bool, error) {
	labelEl := row
	if e.resolver.Has(selector.ConceptOptionLabel) {
		if el, err := e.resolver.ResolveIn(ctx, row, selector.ConceptOptionLabel); err == nil {
			labelEl = el
		}
	}

	text, err := e.acc.Text(ctx, labelEl)
	if err != nil {
		return domain.FilterOption{}, false, fmt.Errorf("%w: %w", domain.ErrUnitExtraction, err)
	}

	label, count := ParseOptionText(text)
	if label == "" {
		return domain.FilterOption{}, false, nil
	}
	opt := domain.FilterOption{Label: label, Count: count}

	if e.resolver.Has(selector.ConceptOptionCount) {
		if el, err := e.resolver.ResolveIn(ctx, row, selector.ConceptOptionCount); err == nil {
			countText, err := e.acc.Text(ctx, el)
			if count := ParseCount(countText); err == nil && count != nil {
				opt.Count = count
				if trimmed := strings.TrimSpace(strings.TrimSuffix(label, strings.TrimSpace(countText))); trimmed != "" {
					opt.Label = trimmed
				}
			}
		}
	}

	if e.resolver.Has(selector.ConceptOptionInput) {
		if el, err := e.firstIn(ctx, row, selector.ConceptOptionInput); err == nil {
			if id, err := e.acc.Attribute(ctx, el, "id"); err == nil && id != nil && *id != "" {
				opt.SourceID = id
			}
		}
	}

	return opt, true, nil
}

// firstIn returns the first match of concept below scope regardless of
// visibility. Checkbox inputs are usually styled invisible.
func (e *Extractor) firstIn(ctx context.Context, scope page.Element, concept string) (page.Element, error) {
	for _, loc := range e.resolver.Locators(concept) {
		elements, err := e.acc.FindAll(ctx, scope, loc)
		if err != nil || len(elements) == 0 {
			continue
		}
		return elements[0], nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrConceptNotFound, concept)
}
