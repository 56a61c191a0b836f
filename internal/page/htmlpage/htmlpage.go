// Package htmlpage serves page.Accessor over server-rendered HTML parsed with
// goquery. Documents come from a Source: saved snapshots or live HTTP fetches.
// Only CSS locators are supported.
package htmlpage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"taxonomy/scraper/internal/page"

	"github.com/PuerkitoBio/goquery"
)

// RevealAttr names an attribute holding a CSS selector. Clicking or hovering
// an element carrying it un-hides the matching elements, the way menus and
// "show more" buttons behave on a live page.
const RevealAttr = "data-reveals"

// Source yields the HTML served at a URL.
type Source interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Snapshots is a Source of in-memory documents keyed by URL.
type Snapshots map[string]string

func (s Snapshots) Fetch(_ context.Context, url string) (string, error) {
	html, ok := s[url]
	if !ok {
		return "", fmt.Errorf("no snapshot for %s: %w", url, page.ErrNotFound)
	}
	return html, nil
}

type Page struct {
	src Source
	doc *goquery.Document
	url string
}

// New serves pages keyed by URL.
func New(pages map[string]string) *Page {
	return NewWithSource(Snapshots(pages))
}

func NewWithSource(src Source) *Page {
	return &Page{src: src}
}

// FromFiles reads one snapshot file per URL.
func FromFiles(files map[string]string) (*Page, error) {
	pages := make(map[string]string, len(files))
	for url, path := range files {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot for %s: %w", url, err)
		}
		pages[url] = string(body)
	}
	return New(pages), nil
}

// URL returns the address of the current document.
func (p *Page) URL() string {
	return p.url
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return page.Wrap("navigate", nil, err)
	}

	html, err := p.src.Fetch(ctx, url)
	if err != nil {
		return page.Wrap("navigate", nil, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return page.Wrap("navigate", nil, fmt.Errorf("failed to parse HTML: %w", err))
	}

	p.doc = doc
	p.url = url
	return nil
}

// WaitUntil evaluates cond once: a static document never changes by itself.
func (p *Page) WaitUntil(ctx context.Context, _ time.Duration, cond func(ctx context.Context) bool) bool {
	return cond(ctx)
}

func (p *Page) FindAll(_ context.Context, scope page.Element, loc page.Locator) ([]page.Element, error) {
	if loc.Kind != page.CSS {
		return nil, page.Wrap("find", &loc, page.ErrUnsupported)
	}

	root, err := p.root(scope)
	if err != nil {
		return nil, page.Wrap("find", &loc, err)
	}

	var found []page.Element
	root.Find(loc.Expr).Each(func(_ int, s *goquery.Selection) {
		found = append(found, s)
	})
	return found, nil
}

func (p *Page) Nearest(_ context.Context, from page.Element, loc page.Locator) (page.Element, error) {
	if loc.Kind != page.CSS {
		return nil, page.Wrap("nearest", &loc, page.ErrUnsupported)
	}

	sel, err := selection(from)
	if err != nil {
		return nil, page.Wrap("nearest", &loc, err)
	}

	closest := sel.Closest(loc.Expr)
	if closest.Length() == 0 {
		return nil, page.Wrap("nearest", &loc, page.ErrNotFound)
	}
	return closest.First(), nil
}

func (p *Page) IsVisible(_ context.Context, el page.Element) (bool, error) {
	sel, err := selection(el)
	if err != nil {
		return false, page.Wrap("visible", nil, err)
	}
	return visible(sel), nil
}

// Text mirrors innerText: hidden elements have none.
func (p *Page) Text(_ context.Context, el page.Element) (string, error) {
	sel, err := selection(el)
	if err != nil {
		return "", page.Wrap("text", nil, err)
	}
	if !visible(sel) {
		return "", nil
	}
	return sel.Text(), nil
}

func (p *Page) Attribute(_ context.Context, el page.Element, name string) (*string, error) {
	sel, err := selection(el)
	if err != nil {
		return nil, page.Wrap("attribute", nil, err)
	}
	val, ok := sel.Attr(name)
	if !ok {
		return nil, nil
	}
	return &val, nil
}

func (p *Page) Click(_ context.Context, el page.Element) error {
	return page.Wrap("click", nil, p.reveal(el))
}

func (p *Page) Hover(_ context.Context, el page.Element) error {
	return page.Wrap("hover", nil, p.reveal(el))
}

func (p *Page) ScrollIntoView(_ context.Context, el page.Element) error {
	_, err := selection(el)
	return page.Wrap("scroll", nil, err)
}

func (p *Page) ScrollToEnd(_ context.Context, el page.Element) error {
	_, err := selection(el)
	return page.Wrap("scroll", nil, err)
}

// Extent counts descendant nodes, which is stable for a static document.
func (p *Page) Extent(_ context.Context, el page.Element) (int, error) {
	sel, err := selection(el)
	if err != nil {
		return 0, page.Wrap("extent", nil, err)
	}
	return sel.Find("*").Length(), nil
}

func (p *Page) root(scope page.Element) (*goquery.Selection, error) {
	if scope == nil {
		if p.doc == nil {
			return nil, fmt.Errorf("no document loaded: %w", page.ErrNotFound)
		}
		return p.doc.Selection, nil
	}
	return selection(scope)
}

func (p *Page) reveal(el page.Element) error {
	sel, err := selection(el)
	if err != nil {
		return err
	}
	if target, ok := sel.Attr(RevealAttr); ok && p.doc != nil {
		p.doc.Find(target).RemoveAttr("hidden")
	}
	return nil
}

func selection(el page.Element) (*goquery.Selection, error) {
	sel, ok := el.(*goquery.Selection)
	if !ok || sel == nil || sel.Length() == 0 {
		return nil, page.ErrStale
	}
	return sel, nil
}

func visible(sel *goquery.Selection) bool {
	for s := sel.First(); s.Length() > 0; s = s.Parent() {
		if _, hidden := s.Attr("hidden"); hidden {
			return false
		}
		style, _ := s.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}
