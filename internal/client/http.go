// Package client fetches server-rendered storefront pages over HTTP for the
// htmlpage driver.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultTimeout      = 60 * time.Second
	defaultBreakerDelay = 30 * time.Minute
)

// ErrCircuitOpen is returned while the site is throttling us.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type Options struct {
	UserAgent string
	Timeout   time.Duration
	// MaxRequestsPerSecond is shared by every caller. Zero disables the limit.
	MaxRequestsPerSecond int
	RetryCount           int
	// BreakerDelay is how long requests stay blocked after a 429.
	BreakerDelay time.Duration
}

type HTTPSource struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
	clock      clock.Clock

	breakerMu    sync.RWMutex
	blockedUntil time.Time
	breakerDelay time.Duration
}

func NewHTTPSource(opts Options, clk clock.Clock) *HTTPSource {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BreakerDelay <= 0 {
		opts.BreakerDelay = defaultBreakerDelay
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "es-AR,es;q=0.9,en;q=0.5")

	rl := ratelimit.NewUnlimited()
	if opts.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(opts.MaxRequestsPerSecond, ratelimit.WithClock(clk))
	}

	return &HTTPSource{
		rl:           rl,
		httpClient:   httpClient,
		clock:        clk,
		breakerDelay: opts.BreakerDelay,
	}
}

// Fetch returns the body served at url.
func (c *HTTPSource) Fetch(ctx context.Context, url string) (string, error) {
	if remaining := c.blockedFor(); remaining > 0 {
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return "", fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		c.trip()
		return "", fmt.Errorf("%w: %s answered %s", ErrCircuitOpen, url, resp.Status())
	}
	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	return resp.String(), nil
}

func (c *HTTPSource) Close() error {
	return c.httpClient.Close()
}

func (c *HTTPSource) blockedFor() time.Duration {
	c.breakerMu.RLock()
	until := c.blockedUntil
	c.breakerMu.RUnlock()

	if until.IsZero() {
		return 0
	}

	remaining := until.Sub(c.clock.Now())
	if remaining > 0 {
		return remaining
	}

	c.breakerMu.Lock()
	if !c.blockedUntil.IsZero() && !c.clock.Now().Before(c.blockedUntil) {
		c.blockedUntil = time.Time{}
		log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
	}
	c.breakerMu.Unlock()
	return 0
}

func (c *HTTPSource) trip() {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()

	c.blockedUntil = c.clock.Now().Add(c.breakerDelay)
	log.Warnf("🚫 Circuit breaker activated! All requests disabled until %v (%v)",
		c.blockedUntil.Format("15:04:05"), c.breakerDelay)
}
