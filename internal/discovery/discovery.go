// Package discovery opens a storefront's category menu and lists the
// categories it links to.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/normalize"
	"taxonomy/scraper/internal/page"
	"taxonomy/scraper/internal/selector"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

const (
	MenuActionClick = "click"
	MenuActionHover = "hover"
)

type Options struct {
	HomeURL string
	// Domain restricts category links to this host and its subdomains.
	// Defaults to the home URL's host without "www.".
	Domain            string
	MenuAction        string
	IgnoredCategories []string
	MenuTimeout       time.Duration
	Settle            time.Duration
}

type Discoverer struct {
	acc      page.Accessor
	resolver *selector.Resolver
	opts     Options
	home     *url.URL
	domain   string
	ignored  map[string]struct{}
	clock    clock.Clock
}

func New(acc page.Accessor, resolver *selector.Resolver, opts Options, clk clock.Clock) (*Discoverer, error) {
	home, err := url.Parse(opts.HomeURL)
	if err != nil || home.Host == "" {
		return nil, fmt.Errorf("invalid home URL %q", opts.HomeURL)
	}

	domainName := strings.ToLower(strings.TrimSpace(opts.Domain))
	if domainName == "" {
		domainName = strings.TrimPrefix(strings.ToLower(home.Hostname()), "www.")
	}

	ignored := make(map[string]struct{}, len(opts.IgnoredCategories))
	for _, c := range opts.IgnoredCategories {
		ignored[normalize.Text(c)] = struct{}{}
	}

	return &Discoverer{
		acc:      acc,
		resolver: resolver,
		opts:     opts,
		home:     home,
		domain:   domainName,
		ignored:  ignored,
		clock:    clk,
	}, nil
}

// OpenMenu clicks or hovers the category menu trigger of the current page.
func (d *Discoverer) OpenMenu(ctx context.Context) error {
	trigger, err := d.resolver.Await(ctx, nil, selector.ConceptMenuTrigger, d.opts.MenuTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNavigation, err)
	}

	if d.opts.MenuAction == MenuActionHover {
		err = d.acc.Hover(ctx, trigger)
	} else {
		err = d.acc.Click(ctx, trigger)
	}
	if err != nil {
		return fmt.Errorf("%w: open menu: %w", domain.ErrNavigation, err)
	}

	if err := page.Pause(ctx, d.clock, d.opts.Settle); err != nil {
		return err
	}

	if d.resolver.Has(selector.ConceptMenuReady) {
		if _, err := d.resolver.Await(ctx, nil, selector.ConceptMenuReady, d.opts.MenuTimeout); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrNavigation, err)
		}
	}

	return nil
}

// Discover opens the menu and returns the categories of the first link
// locator that yields any. The session must be on the landing page.
func (d *Discoverer) Discover(ctx context.Context) ([]domain.Category, error) {
	if err := d.OpenMenu(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
	}

	for _, loc := range d.resolver.Locators(selector.ConceptCategoryLink) {
		anchors, err := d.acc.FindAll(ctx, nil, loc)
		if err != nil {
			log.Debugf("Category locator %s failed: %v", loc, err)
			continue
		}

		categories := d.collect(ctx, anchors)
		if len(categories) > 0 {
			log.Infof("✅ Found %d categories with %s", len(categories), loc)
			return categories, nil
		}
	}

	return nil, fmt.Errorf("%w: no category links on %s", domain.ErrDiscovery, d.opts.HomeURL)
}

func (d *Discoverer) collect(ctx context.Context, anchors []page.Element) []domain.Category {
	seen := make(map[string]struct{}, len(anchors))
	categories := make([]domain.Category, 0, len(anchors))

	for _, a := range anchors {
		text, err := d.acc.Text(ctx, a)
		if err != nil {
			log.Debugf("Skipping unreadable category link: %v", err)
			continue
		}

		name := strings.Join(strings.Fields(text), " ")
		if normalize.Key(name) == "" {
			// Icon-only links would all share the empty document key.
			continue
		}
		if _, skip := d.ignored[normalize.Text(name)]; skip {
			log.Debugf("Ignoring category %q", name)
			continue
		}

		href, err := d.acc.Attribute(ctx, a, "href")
		if err != nil || href == nil {
			continue
		}

		link, ok := d.resolve(*href)
		if !ok {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		categories = append(categories, domain.Category{Name: name, URL: link})
	}

	return categories
}

// resolve makes href absolute and keeps it only when it points to the site.
func (d *Discoverer) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := d.home.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	host := strings.ToLower(abs.Hostname())
	if host != d.domain && !strings.HasSuffix(host, "."+d.domain) {
		return "", false
	}

	abs.Fragment = ""
	return abs.String(), true
}
