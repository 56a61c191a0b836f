// Package mock provides function-field test doubles for the pipeline's
// collaborators. A nil field falls back to a harmless default.
package mock

import (
	"context"
	"time"

	"taxonomy/scraper/internal/page"
)

var _ page.Accessor = (*Accessor)(nil)

type Accessor struct {
	NavigateFn       func(ctx context.Context, url string) error
	WaitUntilFn      func(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) bool) bool
	FindAllFn        func(ctx context.Context, scope page.Element, loc page.Locator) ([]page.Element, error)
	NearestFn        func(ctx context.Context, from page.Element, loc page.Locator) (page.Element, error)
	IsVisibleFn      func(ctx context.Context, el page.Element) (bool, error)
	TextFn           func(ctx context.Context, el page.Element) (string, error)
	AttributeFn      func(ctx context.Context, el page.Element, name string) (*string, error)
	ClickFn          func(ctx context.Context, el page.Element) error
	HoverFn          func(ctx context.Context, el page.Element) error
	ScrollIntoViewFn func(ctx context.Context, el page.Element) error
	ScrollToEndFn    func(ctx context.Context, el page.Element) error
	ExtentFn         func(ctx context.Context, el page.Element) (int, error)
}

func (a *Accessor) Navigate(ctx context.Context, url string) error {
	if a.NavigateFn == nil {
		return nil
	}
	return a.NavigateFn(ctx, url)
}

func (a *Accessor) WaitUntil(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) bool) bool {
	if a.WaitUntilFn == nil {
		return cond(ctx)
	}
	return a.WaitUntilFn(ctx, timeout, cond)
}

func (a *Accessor) FindAll(ctx context.Context, scope page.Element, loc page.Locator) ([]page.Element, error) {
	if a.FindAllFn == nil {
		return nil, nil
	}
	return a.FindAllFn(ctx, scope, loc)
}

func (a *Accessor) Nearest(ctx context.Context, from page.Element, loc page.Locator) (page.Element, error) {
	if a.NearestFn == nil {
		return nil, page.ErrNotFound
	}
	return a.NearestFn(ctx, from, loc)
}

func (a *Accessor) IsVisible(ctx context.Context, el page.Element) (bool, error) {
	if a.IsVisibleFn == nil {
		return true, nil
	}
	return a.IsVisibleFn(ctx, el)
}

func (a *Accessor) Text(ctx context.Context, el page.Element) (string, error) {
	if a.TextFn == nil {
		return "", nil
	}
	return a.TextFn(ctx, el)
}

func (a *Accessor) Attribute(ctx context.Context, el page.Element, name string) (*string, error) {
	if a.AttributeFn == nil {
		return nil, nil
	}
	return a.AttributeFn(ctx, el, name)
}

func (a *Accessor) Click(ctx context.Context, el page.Element) error {
	if a.ClickFn == nil {
		return nil
	}
	return a.ClickFn(ctx, el)
}

func (a *Accessor) Hover(ctx context.Context, el page.Element) error {
	if a.HoverFn == nil {
		return nil
	}
	return a.HoverFn(ctx, el)
}

func (a *Accessor) ScrollIntoView(ctx context.Context, el page.Element) error {
	if a.ScrollIntoViewFn == nil {
		return nil
	}
	return a.ScrollIntoViewFn(ctx, el)
}

func (a *Accessor) ScrollToEnd(ctx context.Context, el page.Element) error {
	if a.ScrollToEndFn == nil {
		return nil
	}
	return a.ScrollToEndFn(ctx, el)
}

func (a *Accessor) Extent(ctx context.Context, el page.Element) (int, error) {
	if a.ExtentFn == nil {
		return 0, nil
	}
	return a.ExtentFn(ctx, el)
}
