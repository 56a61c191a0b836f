// Package selector resolves abstract page concepts through ordered lists of
// fallback locators.
package selector

import (
	"context"
	"fmt"
	"time"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/page"

	log "github.com/sirupsen/logrus"
)

const (
	ConceptPageReady       = "page_ready"
	ConceptOverlayDismiss  = "overlay_dismiss"
	ConceptMenuTrigger     = "menu_trigger"
	ConceptMenuReady       = "menu_ready"
	ConceptCategoryLink    = "category_link"
	ConceptFilterContainer = "filter_container"
	ConceptGroupTitle      = "group_title"
	ConceptOptionPanel     = "option_panel"
	ConceptShowMore        = "show_more"
	ConceptOptionRow       = "option_row"
	ConceptOptionLabel     = "option_label"
	ConceptOptionCount     = "option_count"
	ConceptOptionInput     = "option_input"
)

// Set maps a concept to its locators in priority order.
type Set map[string][]page.Locator

func ParseSet(raw map[string][]string) Set {
	set := make(Set, len(raw))
	for concept, list := range raw {
		if locators := page.ParseLocators(list); len(locators) > 0 {
			set[concept] = locators
		}
	}
	return set
}

type Resolver struct {
	acc page.Accessor
	set Set
}

func NewResolver(acc page.Accessor, set Set) *Resolver {
	return &Resolver{
		acc: acc,
		set: set,
	}
}

// Has reports whether any locator is configured for concept.
func (r *Resolver) Has(concept string) bool {
	return len(r.set[concept]) > 0
}

func (r *Resolver) Locators(concept string) []page.Locator {
	return r.set[concept]
}

// Resolve returns the first visible match in the whole document.
func (r *Resolver) Resolve(ctx context.Context, concept string) (page.Element, error) {
	return r.ResolveIn(ctx, nil, concept)
}

// ResolveIn tries each locator of concept below scope in order and returns the
// first visible match.
func (r *Resolver) ResolveIn(ctx context.Context, scope page.Element, concept string) (page.Element, error) {
	for _, loc := range r.set[concept] {
		elements, err := r.acc.FindAll(ctx, scope, loc)
		if err != nil {
			log.Debugf("Locator %s for %s failed: %v", loc, concept, err)
			continue
		}
		if el := r.firstVisible(ctx, elements); el != nil {
			return el, nil
		}
	}
	return nil, notFound(concept)
}

// ResolveAll returns every match of the first locator of concept that has at
// least one visible match below scope, together with that locator.
func (r *Resolver) ResolveAll(ctx context.Context, scope page.Element, concept string) ([]page.Element, page.Locator, error) {
	for _, loc := range r.set[concept] {
		elements, err := r.acc.FindAll(ctx, scope, loc)
		if err != nil {
			log.Debugf("Locator %s for %s failed: %v", loc, concept, err)
			continue
		}
		if r.firstVisible(ctx, elements) != nil {
			return elements, loc, nil
		}
	}
	return nil, page.Locator{}, notFound(concept)
}

// Await keeps resolving concept below scope until it appears or timeout
// elapses.
func (r *Resolver) Await(ctx context.Context, scope page.Element, concept string, timeout time.Duration) (page.Element, error) {
	if !r.Has(concept) {
		return nil, notFound(concept)
	}

	var found page.Element
	ok := r.acc.WaitUntil(ctx, timeout, func(ctx context.Context) bool {
		el, err := r.ResolveIn(ctx, scope, concept)
		if err != nil {
			return false
		}
		found = el
		return true
	})
	if !ok {
		return nil, fmt.Errorf("%w after %s", notFound(concept), timeout)
	}
	return found, nil
}

// Nearest resolves concept relative to from, trying each locator in order.
func (r *Resolver) Nearest(ctx context.Context, from page.Element, concept string) (page.Element, error) {
	for _, loc := range r.set[concept] {
		el, err := r.acc.Nearest(ctx, from, loc)
		if err != nil {
			log.Debugf("Locator %s for %s failed: %v", loc, concept, err)
			continue
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, notFound(concept)
}

func (r *Resolver) firstVisible(ctx context.Context, elements []page.Element) page.Element {
	for _, el := range elements {
		visible, err := r.acc.IsVisible(ctx, el)
		if err == nil && visible {
			return el
		}
	}
	return nil
}

func notFound(concept string) error {
	return fmt.Errorf("%w: %s", domain.ErrConceptNotFound, concept)
}
