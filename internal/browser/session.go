package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taxonomy/scraper/internal/page"

	"github.com/benbjohnson/clock"
	"github.com/go-rod/rod"
	"go.uber.org/ratelimit"
)

var _ page.Accessor = (*Session)(nil)

// Session is one browser tab.
type Session struct {
	page       *rod.Page
	limiter    ratelimit.Limiter
	navTimeout time.Duration
	poll       time.Duration
	clock      clock.Clock
}

func (s *Session) Close() error {
	return s.page.Close()
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.limiter.Take()

	p := s.page.Context(ctx)
	if s.navTimeout > 0 {
		p = p.Timeout(s.navTimeout)
	}

	if err := p.Navigate(url); err != nil {
		return page.Wrap("navigate", nil, fmt.Errorf("%s: %w", url, classify(err)))
	}
	if err := p.WaitLoad(); err != nil {
		return page.Wrap("navigate", nil, fmt.Errorf("%s: %w", url, classify(err)))
	}
	return nil
}

func (s *Session) WaitUntil(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) bool) bool {
	return page.Poll(ctx, s.clock, timeout, s.poll, cond)
}

func (s *Session) FindAll(ctx context.Context, scope page.Element, loc page.Locator) ([]page.Element, error) {
	var (
		found rod.Elements
		err   error
	)

	if scope == nil {
		p := s.page.Context(ctx)
		if loc.Kind == page.XPath {
			found, err = p.ElementsX(loc.Expr)
		} else {
			found, err = p.Elements(loc.Expr)
		}
	} else {
		el, convErr := element(scope)
		if convErr != nil {
			return nil, page.Wrap("find", &loc, convErr)
		}
		el = el.Context(ctx)
		if loc.Kind == page.XPath {
			found, err = el.ElementsX(loc.Expr)
		} else {
			found, err = el.Elements(loc.Expr)
		}
	}
	if err != nil {
		return nil, page.Wrap("find", &loc, classify(err))
	}

	out := make([]page.Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out, nil
}

func (s *Session) Nearest(ctx context.Context, from page.Element, loc page.Locator) (page.Element, error) {
	el, err := element(from)
	if err != nil {
		return nil, page.Wrap("nearest", &loc, err)
	}
	el = el.Context(ctx)

	var found *rod.Element
	if loc.Kind == page.XPath {
		found, err = el.ElementX(loc.Expr)
	} else {
		found, err = el.ElementByJS(rod.Eval(`(s) => this.closest(s)`, loc.Expr))
	}
	if err != nil {
		return nil, page.Wrap("nearest", &loc, classify(err))
	}
	return found, nil
}

func (s *Session) IsVisible(ctx context.Context, el page.Element) (bool, error) {
	e, err := element(el)
	if err != nil {
		return false, page.Wrap("visible", nil, err)
	}
	visible, err := e.Context(ctx).Visible()
	if err != nil {
		return false, page.Wrap("visible", nil, classify(err))
	}
	return visible, nil
}

func (s *Session) Text(ctx context.Context, el page.Element) (string, error) {
	e, err := element(el)
	if err != nil {
		return "", page.Wrap("text", nil, err)
	}
	text, err := e.Context(ctx).Text()
	if err != nil {
		return "", page.Wrap("text", nil, classify(err))
	}
	return text, nil
}

func (s *Session) Attribute(ctx context.Context, el page.Element, name string) (*string, error) {
	e, err := element(el)
	if err != nil {
		return nil, page.Wrap("attribute", nil, err)
	}
	value, err := e.Context(ctx).Attribute(name)
	if err != nil {
		return nil, page.Wrap("attribute", nil, classify(err))
	}
	return value, nil
}

// Click dispatches a DOM click, which also reaches elements covered by
// sticky headers.
func (s *Session) Click(ctx context.Context, el page.Element) error {
	return s.eval(ctx, "click", el, `() => this.click()`)
}

func (s *Session) Hover(ctx context.Context, el page.Element) error {
	e, err := element(el)
	if err != nil {
		return page.Wrap("hover", nil, err)
	}
	return page.Wrap("hover", nil, classify(e.Context(ctx).Hover()))
}

func (s *Session) ScrollIntoView(ctx context.Context, el page.Element) error {
	e, err := element(el)
	if err != nil {
		return page.Wrap("scroll", nil, err)
	}
	return page.Wrap("scroll", nil, classify(e.Context(ctx).ScrollIntoView()))
}

func (s *Session) ScrollToEnd(ctx context.Context, el page.Element) error {
	return s.eval(ctx, "scroll", el, `() => {
		this.scrollTop = this.scrollHeight;
		window.scrollTo(0, document.body.scrollHeight);
	}`)
}

func (s *Session) Extent(ctx context.Context, el page.Element) (int, error) {
	e, err := element(el)
	if err != nil {
		return 0, page.Wrap("extent", nil, err)
	}
	res, err := e.Context(ctx).Eval(`() => this.scrollHeight`)
	if err != nil {
		return 0, page.Wrap("extent", nil, classify(err))
	}
	return res.Value.Int(), nil
}

func (s *Session) eval(ctx context.Context, op string, el page.Element, js string) error {
	e, err := element(el)
	if err != nil {
		return page.Wrap(op, nil, err)
	}
	_, err = e.Context(ctx).Eval(js)
	return page.Wrap(op, nil, classify(err))
}

func element(el page.Element) (*rod.Element, error) {
	e, ok := el.(*rod.Element)
	if !ok || e == nil {
		return nil, page.ErrStale
	}
	return e, nil
}

// classify maps rod failures onto the page error kinds.
func classify(err error) error {
	var (
		notFound *rod.ElementNotFoundError
		gone     *rod.ObjectNotFoundError
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", page.ErrTimeout, err)
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %w", page.ErrNotFound, err)
	case errors.As(err, &gone):
		return fmt.Errorf("%w: %w", page.ErrStale, err)
	default:
		return err
	}
}
