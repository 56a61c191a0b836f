// Package browser drives a Chromium instance through go-rod. Every Session is
// one tab and satisfies page.Accessor.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const defaultPollInterval = 250 * time.Millisecond

type Options struct {
	Headless  bool
	Bin       string // Chromium binary, downloaded by rod when empty
	NoSandbox bool
	UserAgent string

	NavigationTimeout time.Duration
	// MaxNavigationsPerSecond is shared by all tabs. Zero disables the limit.
	MaxNavigationsPerSecond int
	PollInterval            time.Duration
}

type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	limiter  ratelimit.Limiter
	opts     Options
	clock    clock.Clock
}

// New launches Chromium and connects to it.
func New(ctx context.Context, opts Options, clk clock.Clock) (*Browser, error) {
	l := launcher.New().Headless(opts.Headless).NoSandbox(opts.NoSandbox)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	limiter := ratelimit.NewUnlimited()
	if opts.MaxNavigationsPerSecond > 0 {
		limiter = ratelimit.New(opts.MaxNavigationsPerSecond, ratelimit.WithClock(clk))
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	log.Infof("✅ Browser started (headless=%t)", opts.Headless)

	return &Browser{
		browser:  b,
		launcher: l,
		limiter:  limiter,
		opts:     opts,
		clock:    clk,
	}, nil
}

// NewSession opens a new tab.
func (b *Browser) NewSession(ctx context.Context) (*Session, error) {
	p, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	if b.opts.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	return &Session{
		page:       p.Context(context.Background()),
		limiter:    b.limiter,
		navTimeout: b.opts.NavigationTimeout,
		poll:       b.opts.PollInterval,
		clock:      b.clock,
	}, nil
}

func (b *Browser) Close() error {
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	log.Info("Browser closed")
	return nil
}
