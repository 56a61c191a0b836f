package service

import (
	"context"
	"fmt"
	"time"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/domain/task"
	"taxonomy/scraper/internal/page"
	"taxonomy/scraper/internal/queue"
	"taxonomy/scraper/internal/repository"
	"taxonomy/scraper/internal/state"
	"taxonomy/scraper/internal/store"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const readErrorPause = time.Second

// SessionFactory opens a page session and returns the function releasing it.
type SessionFactory func(ctx context.Context) (page.Accessor, func() error, error)

// Dispatcher spreads the categories of a run over queue workers. Every worker
// owns its own page session and handles one task at a time.
type Dispatcher struct {
	queue      queue.Queue
	newSession SessionFactory
	sites      map[string]Site
	store      store.DocumentStore
	tracker    state.Tracker
	clock      clock.Clock
	maxRetries int
}

func NewDispatcher(
	q queue.Queue,
	newSession SessionFactory,
	sites map[string]Site,
	st store.DocumentStore,
	tracker state.Tracker,
	clk clock.Clock,
	maxRetries int,
) *Dispatcher {
	return &Dispatcher{
		queue:      q,
		newSession: newSession,
		sites:      sites,
		store:      st,
		tracker:    tracker,
		clock:      clk,
		maxRetries: maxRetries,
	}
}

func (d *Dispatcher) orchestrator(acc page.Accessor, siteName, version string) (*Orchestrator, error) {
	site, ok := d.sites[siteName]
	if !ok {
		return nil, fmt.Errorf("unknown site %q", siteName)
	}
	repo := repository.NewTaxonomyRepository(d.store, site.Name, version, site.Collections, d.clock)
	return NewOrchestrator(site, version, acc, repo, d.tracker, d.clock)
}

// Enqueue discovers the categories of site and publishes one task per
// category. It returns the number of tasks published.
func (d *Dispatcher) Enqueue(ctx context.Context, siteName, version string) (int, error) {
	acc, release, err := d.newSession(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := release(); err != nil {
			log.Warnf("⚠️ Failed to release session: %v", err)
		}
	}()

	orch, err := d.orchestrator(acc, siteName, version)
	if err != nil {
		return 0, err
	}

	categories, err := orch.Discover(ctx)
	if err != nil {
		return 0, err
	}

	for i, category := range categories {
		_, err := d.queue.AddTask(ctx, &task.CategoryTask{
			Site:     siteName,
			Version:  version,
			Category: category,
		})
		if err != nil {
			return i, fmt.Errorf("failed to enqueue %s: %w", category.Name, err)
		}
		orch.track(ctx, category, domain.StatusPending)
	}

	if backlog, err := d.queue.Backlog(ctx, queue.StreamName(task.TypeCategory)); err == nil {
		log.Infof("📦 Enqueued %d categories of %s, %d tasks in stream", len(categories), siteName, backlog)
	}

	return len(categories), nil
}

// RunWorkers starts n workers and blocks until ctx is cancelled or a worker
// cannot open its session.
func (d *Dispatcher) RunWorkers(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 1; i <= n; i++ {
		i := i
		g.Go(func() error {
			return d.work(ctx, fmt.Sprintf("worker-%d", i))
		})
	}

	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context, consumer string) error {
	acc, release, err := d.newSession(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to open session: %w", consumer, err)
	}
	defer func() {
		if err := release(); err != nil {
			log.Warnf("⚠️ %s failed to release session: %v", consumer, err)
		}
	}()

	log.Infof("🚀 Starting %s", consumer)
	for {
		select {
		case <-ctx.Done():
			log.Infof("🛑 %s stopping", consumer)
			return nil
		default:
		}

		msg, err := d.next(ctx, consumer)
		if err != nil {
			if ctx.Err() == nil {
				log.Errorf("❌ %s failed to read tasks: %v", consumer, err)
				_ = page.Pause(ctx, d.clock, readErrorPause)
			}
			continue
		}
		if msg == nil {
			continue
		}

		// Finish the task in hand even when asked to stop.
		if err := d.processMessage(context.WithoutCancel(ctx), acc, msg); err != nil {
			log.Errorf("❌ %s failed to process message %s: %v", consumer, msg.ID, err)
		}
	}
}

// next prefers abandoned messages, then new categories, then retries.
func (d *Dispatcher) next(ctx context.Context, consumer string) (*queue.Message, error) {
	streams := []string{
		queue.StreamName(task.TypeCategory),
		queue.StreamName(task.TypeCategoryRetry),
	}

	for _, stream := range streams {
		claimed, err := d.queue.AutoClaim(ctx, consumer, stream)
		if err != nil {
			return nil, err
		}
		if len(claimed) > 0 {
			log.Infof("🔄 %s claimed %s from %s", consumer, claimed[0].ID, stream)
			return claimed[0], nil
		}
	}

	for _, stream := range streams {
		msg, err := d.queue.GetTask(ctx, consumer, stream)
		if err != nil || msg != nil {
			return msg, err
		}
	}

	return nil, nil
}

func (d *Dispatcher) processMessage(ctx context.Context, acc page.Accessor, msg *queue.Message) error {
	t, err := task.Decode(msg.TaskType, msg.Data)
	if err == nil {
		switch t := t.(type) {
		case *task.CategoryTask:
			err = d.handleCategory(ctx, acc, t)
		case *task.CategoryRetryTask:
			err = d.handleRetry(ctx, acc, t)
		}
	}

	// Undecodable tasks are acknowledged too so they are not claimed forever.
	if ackErr := d.queue.AckTask(ctx, msg); ackErr != nil {
		return ackErr
	}
	return err
}

func (d *Dispatcher) handleCategory(ctx context.Context, acc page.Accessor, t *task.CategoryTask) error {
	result, err := d.process(ctx, acc, t.Site, t.Version, t.Category)
	if err != nil {
		return err
	}
	if result.Status == domain.StatusSucceeded {
		return nil
	}

	return d.retry(ctx, &task.CategoryRetryTask{
		Site:       t.Site,
		Version:    t.Version,
		Category:   t.Category,
		RetryCount: 0,
		Error:      errText(result.Err),
	})
}

func (d *Dispatcher) handleRetry(ctx context.Context, acc page.Accessor, t *task.CategoryRetryTask) error {
	t.RetryCount++

	log.Infof("🔄 Retrying %s of %s (attempt %d)", t.Category.Name, t.Site, t.RetryCount)

	result, err := d.process(ctx, acc, t.Site, t.Version, t.Category)
	if err != nil {
		return err
	}
	if result.Status == domain.StatusSucceeded {
		log.Infof("✅ Recovered %s after %d attempts", t.Category.Name, t.RetryCount)
		return nil
	}

	t.Error = errText(result.Err)
	return d.retry(ctx, t)
}

func (d *Dispatcher) retry(ctx context.Context, t *task.CategoryRetryTask) error {
	if t.RetryCount >= d.maxRetries {
		log.Errorf("❌ Giving up on %s of %s after %d retries: %s", t.Category.Name, t.Site, t.RetryCount, t.Error)
		return nil
	}

	if _, err := d.queue.AddTask(ctx, t); err != nil {
		return fmt.Errorf("failed to add retry task for %s: %w", t.Category.Name, err)
	}
	log.Warnf("🔄 Added %s to retry queue: %s", t.Category.Name, t.Error)
	return nil
}

func (d *Dispatcher) process(ctx context.Context, acc page.Accessor, siteName, version string, category domain.Category) (domain.CategoryResult, error) {
	orch, err := d.orchestrator(acc, siteName, version)
	if err != nil {
		return domain.CategoryResult{}, err
	}
	return orch.ProcessCategory(ctx, category), nil
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
