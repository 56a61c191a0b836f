package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxonomy/scraper/internal/discovery"
	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/extractor"
	"taxonomy/scraper/internal/page"
	"taxonomy/scraper/internal/repository"
	"taxonomy/scraper/internal/selector"
	"taxonomy/scraper/internal/state"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("taxonomy/scraper/internal/service")

// Site is the configuration record of one storefront.
type Site struct {
	Name        string
	HomeURL     string
	Selectors   selector.Set
	Discovery   discovery.Options
	Extraction  extractor.Options
	Collections repository.Collections

	PageLoad            time.Duration
	Settle              time.Duration
	ReestablishAttempts int
	ReestablishDelay    time.Duration
}

// Orchestrator walks the categories of one site over a single page session,
// one category at a time.
type Orchestrator struct {
	site       Site
	version    string
	acc        page.Accessor
	resolver   *selector.Resolver
	discoverer *discovery.Discoverer
	extractor  *extractor.Extractor
	repo       repository.TaxonomyRepository
	tracker    state.Tracker
	clock      clock.Clock
}

func NewOrchestrator(
	site Site,
	version string,
	acc page.Accessor,
	repo repository.TaxonomyRepository,
	tracker state.Tracker,
	clk clock.Clock,
) (*Orchestrator, error) {
	resolver := selector.NewResolver(acc, site.Selectors)

	discoveryOpts := site.Discovery
	discoveryOpts.HomeURL = site.HomeURL
	if discoveryOpts.Settle == 0 {
		discoveryOpts.Settle = site.Settle
	}
	if discoveryOpts.MenuTimeout == 0 {
		discoveryOpts.MenuTimeout = site.PageLoad
	}

	discoverer, err := discovery.New(acc, resolver, discoveryOpts, clk)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	return &Orchestrator{
		site:       site,
		version:    version,
		acc:        acc,
		resolver:   resolver,
		discoverer: discoverer,
		extractor:  extractor.New(acc, resolver, site.Extraction, clk),
		repo:       repo,
		tracker:    tracker,
		clock:      clk,
	}, nil
}

func (o *Orchestrator) runKey() state.RunKey {
	return state.RunKey{Site: o.site.Name, Version: o.version}
}

// Discover lands on the home page and lists the site's categories.
func (o *Orchestrator) Discover(ctx context.Context) ([]domain.Category, error) {
	if err := o.open(ctx, o.site.HomeURL); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
	}
	return o.discoverer.Discover(ctx)
}

// Run discovers the categories and processes them in order. A failed category
// never ends the run; a failed discovery or a failed return to the menu does.
// Cancelling ctx stops the run before the next category starts.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunReport, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.Run")
	defer span.End()
	span.SetAttributes(attribute.String("site", o.site.Name), attribute.String("version", o.version))

	report := &domain.RunReport{
		Site:      o.site.Name,
		Version:   o.version,
		StartedAt: o.clock.Now().UTC(),
	}
	defer func() {
		report.FinishedAt = o.clock.Now().UTC()
		if err := o.repo.RecordRun(context.WithoutCancel(ctx), report); err != nil {
			log.Warnf("⚠️ Could not record run history of %s: %v", o.site.Name, err)
		}
	}()

	log.Infof("🚀 Starting %s run %s", o.site.Name, o.version)

	categories, err := o.Discover(ctx)
	if err != nil {
		log.Errorf("❌ Discovery failed for %s: %v", o.site.Name, err)
		report.Err = err
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	report.Results = make([]domain.CategoryResult, len(categories))
	for i, category := range categories {
		report.Results[i] = domain.CategoryResult{Category: category, Status: domain.StatusPending}
		o.track(ctx, category, domain.StatusPending)
	}

	for i, category := range categories {
		if ctx.Err() != nil {
			report.Stopped = true
			log.Infof("🛑 Stop requested, %d categories left pending", len(categories)-i)
			break
		}

		// A category in flight always runs to completion.
		report.Results[i] = o.ProcessCategory(context.WithoutCancel(ctx), category)

		if i == len(categories)-1 {
			break
		}
		if ctx.Err() != nil {
			report.Stopped = true
			log.Infof("🛑 Stop requested, %d categories left pending", len(categories)-i-1)
			break
		}

		if err := o.reestablish(ctx); err != nil {
			if ctx.Err() != nil {
				report.Stopped = true
				break
			}
			log.Errorf("❌ Could not return to the category menu of %s: %v", o.site.Name, err)
			report.Err = err
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
	}

	tally := report.Tally()
	span.SetAttributes(
		attribute.Int("succeeded", tally.Succeeded),
		attribute.Int("failed", tally.Failed),
		attribute.Int("total", tally.Total),
	)
	log.Infof("✅ %s run %s finished: %s", o.site.Name, o.version, tally)

	return report, nil
}

// ProcessCategory opens one category, extracts its taxonomy and persists it.
// The session is left on the category page.
func (o *Orchestrator) ProcessCategory(ctx context.Context, category domain.Category) domain.CategoryResult {
	ctx, span := tracer.Start(ctx, "orchestrator.ProcessCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category", category.Name), attribute.String("url", category.URL))

	log.Infof("🔄 Processing category %s (%s)", category.Name, category.URL)
	o.track(ctx, category, domain.StatusInProgress)

	result := domain.CategoryResult{Category: category}
	fail := func(err error) domain.CategoryResult {
		result.Status = domain.StatusFailed
		result.Err = err
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("❌ Category %s failed: %v", category.Name, err)
		o.track(ctx, category, domain.StatusFailed)
		return result
	}

	if err := o.open(ctx, category.URL); err != nil {
		return fail(err)
	}

	taxonomy, err := o.extractor.Extract(ctx, category)
	if err != nil {
		return fail(err)
	}
	result.Groups = taxonomy.Len()
	result.Options = taxonomy.OptionCount()

	if taxonomy.Empty() {
		return fail(fmt.Errorf("%w: %s", domain.ErrEmptyTaxonomy, category.URL))
	}

	if err := o.repo.SaveTaxonomy(ctx, taxonomy); err != nil {
		return fail(err)
	}

	result.Status = domain.StatusSucceeded
	o.track(ctx, category, domain.StatusSucceeded)
	log.Infof("✅ Saved %s: %d groups, %d options", category.Name, result.Groups, result.Options)

	return result
}

// open navigates to url and waits until the page is ready to be read.
func (o *Orchestrator) open(ctx context.Context, url string) error {
	if err := o.acc.Navigate(ctx, url); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNavigation, err)
	}

	if o.resolver.Has(selector.ConceptPageReady) {
		if _, err := o.resolver.Await(ctx, nil, selector.ConceptPageReady, o.site.PageLoad); err != nil {
			return fmt.Errorf("%w: %s not ready: %w", domain.ErrNavigation, url, err)
		}
	}

	if err := page.Pause(ctx, o.clock, o.site.Settle); err != nil {
		return err
	}

	o.dismissOverlay(ctx)
	return nil
}

// dismissOverlay closes a cookie or privacy banner if one is showing.
func (o *Orchestrator) dismissOverlay(ctx context.Context) {
	if !o.resolver.Has(selector.ConceptOverlayDismiss) {
		return
	}

	button, err := o.resolver.Resolve(ctx, selector.ConceptOverlayDismiss)
	if err != nil {
		return
	}

	if err := o.acc.Click(ctx, button); err != nil {
		log.Debugf("Could not dismiss overlay: %v", err)
		return
	}
	log.Debug("Dismissed overlay")

	if err := page.Pause(ctx, o.clock, o.site.Settle); err != nil {
		log.Debugf("Settle after overlay interrupted: %v", err)
	}
}

// reestablish returns to the landing page and reopens the category menu.
func (o *Orchestrator) reestablish(ctx context.Context) error {
	attempts := o.site.ReestablishAttempts
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.site.ReestablishDelay), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := o.open(ctx, o.site.HomeURL); err != nil {
			log.Warnf("⚠️ Landing attempt %d/%d failed: %v", attempt, attempts, err)
			return err
		}
		if err := o.discoverer.OpenMenu(ctx); err != nil {
			log.Warnf("⚠️ Menu attempt %d/%d failed: %v", attempt, attempts, err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("%w after %d attempts: %w", domain.ErrReestablish, attempt, err)
	}
	return nil
}

func (o *Orchestrator) track(ctx context.Context, category domain.Category, status domain.CategoryStatus) {
	if o.tracker == nil {
		return
	}
	if err := o.tracker.SetStatus(ctx, o.runKey(), category, status); err != nil {
		log.Warnf("⚠️ Could not record %s as %s: %v", category.Name, status, err)
	}
}

// IsTerminal reports whether err ends a whole run rather than one category.
func IsTerminal(err error) bool {
	return errors.Is(err, domain.ErrDiscovery) || errors.Is(err, domain.ErrReestablish)
}
