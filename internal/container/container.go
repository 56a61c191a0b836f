package container

import (
	"context"
	"errors"
	"fmt"

	"taxonomy/scraper/internal/browser"
	"taxonomy/scraper/internal/client"
	"taxonomy/scraper/internal/config"
	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/page"
	"taxonomy/scraper/internal/page/htmlpage"
	"taxonomy/scraper/internal/queue"
	"taxonomy/scraper/internal/repository"
	"taxonomy/scraper/internal/service"
	"taxonomy/scraper/internal/state"
	"taxonomy/scraper/internal/store"
	"taxonomy/scraper/internal/telemetry"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var ErrQueueDisabled = errors.New("redis is disabled, enable it to distribute categories")

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Store      store.DocumentStore
	Tracker    state.Tracker
	Queue      queue.Queue
	Sites      map[string]service.Site
	Dispatcher *service.Dispatcher

	clock    clock.Clock
	sessions service.SessionFactory
	closers  []func() error
	shutdown telemetry.Shutdown
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		clock:  clock.New(),
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	c.shutdown = shutdown

	if err := c.initStore(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}

	sessions, err := c.sessionFactory(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.sessions = sessions

	c.Sites = make(map[string]service.Site, len(cfg.Sites))
	for name, site := range cfg.Sites {
		s, err := SiteFromConfig(name, site)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Sites[name] = s
	}

	if c.Queue != nil {
		c.Dispatcher = service.NewDispatcher(c.Queue, c.sessions, c.Sites, c.Store, c.Tracker, c.clock, cfg.Worker.MaxRetries)
	}

	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.Run.Store {
	case config.StorePostgres:
		db, err := pgxpool.New(ctx, c.Config.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c.closers = append(c.closers, func() error { db.Close(); return nil })

		pg, err := store.NewPostgresStore(ctx, db)
		if err != nil {
			return err
		}
		c.Store = pg
		log.Info("✅ Connected to Postgres successfully")

	case config.StoreSQLite:
		lite, err := store.OpenSQLite(ctx, c.Config.SQLite.Path)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, lite.Close)
		c.Store = lite
		log.Infof("✅ Opened SQLite store %s", c.Config.SQLite.Path)

	default:
		c.Store = store.NewMemoryStore()
		log.Warn("⚠️ Using in-memory store, documents are lost on exit")
	}

	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	if !c.Config.Redis.Enabled {
		c.Tracker = state.NewMemoryTracker()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})
	c.closers = append(c.closers, rdb.Close)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	q, err := queue.NewRedisQueue(ctx, rdb, c.Config.Redis)
	if err != nil {
		return err
	}
	c.Queue = q
	c.Tracker = state.NewRedisTracker(rdb)

	return nil
}

func (c *Container) sessionFactory(ctx context.Context) (service.SessionFactory, error) {
	switch c.Config.Browser.Driver {
	case config.DriverStatic:
		files := make(map[string]string, len(c.Config.Browser.Snapshots))
		for _, s := range c.Config.Browser.Snapshots {
			files[s.URL] = s.File
		}
		return func(context.Context) (page.Accessor, func() error, error) {
			p, err := htmlpage.FromFiles(files)
			if err != nil {
				return nil, nil, err
			}
			return p, func() error { return nil }, nil
		}, nil

	case config.DriverHTTP:
		src := client.NewHTTPSource(client.Options{
			UserAgent:            c.Config.Browser.UserAgent,
			Timeout:              c.Config.Browser.NavigationTimeout,
			MaxRequestsPerSecond: c.Config.Browser.MaxNavigationsPerSecond,
			RetryCount:           c.Config.Browser.RetryCount,
			BreakerDelay:         c.Config.Browser.BreakerDelay,
		}, c.clock)
		c.closers = append(c.closers, src.Close)

		return func(context.Context) (page.Accessor, func() error, error) {
			return htmlpage.NewWithSource(src), func() error { return nil }, nil
		}, nil
	}

	b, err := browser.New(ctx, browser.Options{
		Headless:                c.Config.Browser.Headless,
		Bin:                     c.Config.Browser.Bin,
		NoSandbox:               c.Config.Browser.NoSandbox,
		UserAgent:               c.Config.Browser.UserAgent,
		NavigationTimeout:       c.Config.Browser.NavigationTimeout,
		MaxNavigationsPerSecond: c.Config.Browser.MaxNavigationsPerSecond,
		PollInterval:            c.Config.Browser.PollInterval,
	}, c.clock)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, b.Close)

	return func(ctx context.Context) (page.Accessor, func() error, error) {
		s, err := b.NewSession(ctx)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}, nil
}

// Run scrapes every category of site in one session.
func (c *Container) Run(ctx context.Context, siteName, version string) (*domain.RunReport, error) {
	site, ok := c.Sites[siteName]
	if !ok {
		return nil, fmt.Errorf("unknown site %q", siteName)
	}

	acc, release, err := c.sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := release(); err != nil {
			log.Warnf("⚠️ Failed to release session: %v", err)
		}
	}()

	repo := repository.NewTaxonomyRepository(c.Store, site.Name, version, site.Collections, c.clock)
	orch, err := service.NewOrchestrator(site, version, acc, repo, c.Tracker, c.clock)
	if err != nil {
		return nil, err
	}

	return orch.Run(ctx)
}

// Enqueue publishes the categories of site for workers.
func (c *Container) Enqueue(ctx context.Context, siteName, version string) (int, error) {
	if c.Dispatcher == nil {
		return 0, ErrQueueDisabled
	}
	return c.Dispatcher.Enqueue(ctx, siteName, version)
}

// Work consumes category tasks until ctx is cancelled.
func (c *Container) Work(ctx context.Context) error {
	if c.Dispatcher == nil {
		return ErrQueueDisabled
	}
	return c.Dispatcher.RunWorkers(ctx, c.Config.Worker.Workers)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if c.shutdown != nil {
		if err := c.shutdown(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	log.Info("Container shut down successfully")
	return errors.Join(errs...)
}
