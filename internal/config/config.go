package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	DriverRod    = "rod"
	DriverStatic = "static"
	DriverHTTP   = "http"
)

// Config holds all configuration for the application
type Config struct {
	Log       LogConfig             `mapstructure:"log"`
	Run       RunConfig             `mapstructure:"run"`
	Browser   BrowserConfig         `mapstructure:"browser"`
	Database  DatabaseConfig        `mapstructure:"database"`
	SQLite    SQLiteConfig          `mapstructure:"sqlite"`
	Redis     RedisConfig           `mapstructure:"redis"`
	Worker    WorkerConfig          `mapstructure:"worker"`
	Telemetry TelemetryConfig       `mapstructure:"telemetry"`
	Sites     map[string]SiteConfig `mapstructure:"sites"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// RunConfig selects what a run scrapes and where documents go
type RunConfig struct {
	Site       string `mapstructure:"site"`
	VersionTag string `mapstructure:"version_tag"` // defaults to <site>_scraper_v1.0
	Store      string `mapstructure:"store"`
}

type BrowserConfig struct {
	Driver                  string        `mapstructure:"driver"`
	Headless                bool          `mapstructure:"headless"`
	Bin                     string        `mapstructure:"bin"`
	NoSandbox               bool          `mapstructure:"no_sandbox"`
	UserAgent               string        `mapstructure:"user_agent"`
	NavigationTimeout       time.Duration `mapstructure:"navigation_timeout"`
	MaxNavigationsPerSecond int           `mapstructure:"max_navigations_per_second"`
	PollInterval            time.Duration `mapstructure:"poll_interval"`

	// Used by the http driver only.
	RetryCount   int           `mapstructure:"retry_count"`
	BreakerDelay time.Duration `mapstructure:"breaker_delay"`

	// Snapshots are the saved pages served by the static driver.
	Snapshots []SnapshotConfig `mapstructure:"snapshots"`
}

type SnapshotConfig struct {
	URL  string `mapstructure:"url"`
	File string `mapstructure:"file"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Password      string        `mapstructure:"password"`
	Database      int           `mapstructure:"database"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
	MinIdleTime   time.Duration `mapstructure:"min_idle_time"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type WorkerConfig struct {
	Workers    int `mapstructure:"workers"`
	MaxRetries int `mapstructure:"max_retries"`
}

type TelemetryConfig struct {
	Endpoint    string            `mapstructure:"endpoint"` // OTLP/HTTP collector, tracing is off when empty
	Insecure    bool              `mapstructure:"insecure"`
	ServiceName string            `mapstructure:"service_name"`
	Headers     map[string]string `mapstructure:"headers"`
}

// SiteConfig describes how to scrape one storefront.
type SiteConfig struct {
	HomeURL           string              `mapstructure:"home_url"`
	Domain            string              `mapstructure:"domain"`
	MenuAction        string              `mapstructure:"menu_action"` // click or hover
	IgnoredCategories []string            `mapstructure:"ignored_categories"`
	IgnoredGroups     []string            `mapstructure:"ignored_groups"`
	RequireCount      bool                `mapstructure:"require_count"`
	ExpandGroups      bool                `mapstructure:"expand_groups"`
	GroupScope        string              `mapstructure:"group_scope"` // container or page
	Passes            int                 `mapstructure:"passes"`
	Collections       CollectionsConfig   `mapstructure:"collections"`
	Timings           TimingsConfig       `mapstructure:"timings"`
	Selectors         map[string][]string `mapstructure:"selectors"`
}

type CollectionsConfig struct {
	RawCategory string `mapstructure:"raw_category"`
	RawGroup    string `mapstructure:"raw_group"`
	Normalized  string `mapstructure:"normalized"`
	Metadata    string `mapstructure:"metadata"`
	RunHistory  string `mapstructure:"run_history"`
}

type TimingsConfig struct {
	PageLoad            time.Duration `mapstructure:"page_load"`
	Settle              time.Duration `mapstructure:"settle"`
	MenuTimeout         time.Duration `mapstructure:"menu_timeout"`
	ContainerTimeout    time.Duration `mapstructure:"container_timeout"`
	RevealWait          time.Duration `mapstructure:"reveal_wait"`
	RevealMaxIterations int           `mapstructure:"reveal_max_iterations"`
	ReestablishAttempts int           `mapstructure:"reestablish_attempts"`
	ReestablishDelay    time.Duration `mapstructure:"reestablish_delay"`
}

var defaultTimings = TimingsConfig{
	PageLoad:            20 * time.Second,
	Settle:              2 * time.Second,
	MenuTimeout:         10 * time.Second,
	ContainerTimeout:    10 * time.Second,
	RevealWait:          2 * time.Second,
	RevealMaxIterations: 50,
	ReestablishAttempts: 3,
	ReestablishDelay:    5 * time.Second,
}

// Load reads path, or config.yaml in the working directory when path is
// empty, with environment variable overrides. Built-in site profiles are
// merged under the configured sites.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info("No config.yaml found, using defaults and built-in sites")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.mergeSites(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("run.site", "")
	v.SetDefault("run.version_tag", "")
	v.SetDefault("run.store", StoreSQLite)

	v.SetDefault("browser.driver", DriverRod)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.max_navigations_per_second", 1)
	v.SetDefault("browser.poll_interval", "250ms")
	v.SetDefault("browser.retry_count", 3)
	v.SetDefault("browser.breaker_delay", "30m")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "taxonomy")
	v.SetDefault("database.user", "taxonomy_user")
	v.SetDefault("database.password", "taxonomy_pass")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("sqlite.path", "./taxonomy.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "taxonomy_consumer")
	v.SetDefault("redis.min_idle_time", "10m")

	v.SetDefault("worker.workers", 2)
	v.SetDefault("worker.max_retries", 3)

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", "taxonomy-scraper")
}

// mergeSites fills every configured site from its built-in profile and
// adds the profiles that are not configured at all.
func (c *Config) mergeSites() error {
	if c.Sites == nil {
		c.Sites = make(map[string]SiteConfig)
	}

	for name, preset := range Presets() {
		site, ok := c.Sites[name]
		if !ok {
			c.Sites[name] = preset
			continue
		}
		if err := mergo.Merge(&site, preset); err != nil {
			return fmt.Errorf("failed to merge site %s: %w", name, err)
		}
		c.Sites[name] = site
	}

	for name, site := range c.Sites {
		if err := mergo.Merge(&site.Timings, defaultTimings); err != nil {
			return fmt.Errorf("failed to apply timings of site %s: %w", name, err)
		}
		if site.Passes < 1 {
			site.Passes = 1
		}
		c.Sites[name] = site
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.Run.Store {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown run.store %q", c.Run.Store)
	}

	switch c.Browser.Driver {
	case DriverRod, DriverStatic, DriverHTTP:
	default:
		return fmt.Errorf("unknown browser.driver %q", c.Browser.Driver)
	}

	for name, site := range c.Sites {
		if site.HomeURL == "" {
			return fmt.Errorf("site %s: home_url is required", name)
		}
		switch site.MenuAction {
		case "", "click", "hover":
		default:
			return fmt.Errorf("site %s: unknown menu_action %q", name, site.MenuAction)
		}
		switch site.GroupScope {
		case "", "container", "page":
		default:
			return fmt.Errorf("site %s: unknown group_scope %q", name, site.GroupScope)
		}
	}

	return nil
}

// Site returns the configuration of a site by name.
func (c *Config) Site(name string) (SiteConfig, error) {
	site, ok := c.Sites[strings.ToLower(name)]
	if !ok {
		return SiteConfig{}, fmt.Errorf("unknown site %q", name)
	}
	return site, nil
}

// VersionTag is the tag recorded with the run metadata of site.
func (c *Config) VersionTag(site string) string {
	if c.Run.VersionTag != "" {
		return c.Run.VersionTag
	}
	return strings.ToLower(site) + "_scraper_v1.0"
}
