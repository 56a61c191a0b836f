// Package page describes the navigation session the scraping pipeline drives.
// Implementations live in internal/browser (live Chromium tab) and
// internal/page/htmlpage (server-rendered HTML).
package page

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Element is an opaque handle to a rendered node. It is only meaningful to
// the Accessor that returned it and only until the next navigation.
type Element any

// Accessor is one stateful navigation session. It must not be shared between
// goroutines.
type Accessor interface {
	Navigate(ctx context.Context, url string) error
	// WaitUntil polls cond until it holds or timeout elapses.
	WaitUntil(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) bool) bool
	// FindAll returns every match of loc below scope, or in the whole document
	// when scope is nil.
	FindAll(ctx context.Context, scope Element, loc Locator) ([]Element, error)
	// Nearest resolves loc relative to from. CSS locators match the closest
	// ancestor-or-self; XPath locators are evaluated with from as context node.
	Nearest(ctx context.Context, from Element, loc Locator) (Element, error)
	IsVisible(ctx context.Context, el Element) (bool, error)
	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (*string, error)
	Click(ctx context.Context, el Element) error
	Hover(ctx context.Context, el Element) error
	ScrollIntoView(ctx context.Context, el Element) error
	// ScrollToEnd scrolls the element's own content to the bottom.
	ScrollToEnd(ctx context.Context, el Element) error
	// Extent is the rendered content height of the element.
	Extent(ctx context.Context, el Element) (int, error)
}

// Pause blocks for d or until ctx is done.
func Pause(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poll evaluates cond every interval until it holds, timeout elapses or ctx is
// done. cond is always evaluated at least once.
func Poll(ctx context.Context, clk clock.Clock, timeout, interval time.Duration, cond func(ctx context.Context) bool) bool {
	deadline := clk.Now().Add(timeout)
	for {
		if cond(ctx) {
			return true
		}
		if !clk.Now().Before(deadline) {
			return false
		}
		if err := Pause(ctx, clk, interval); err != nil {
			return false
		}
	}
}
