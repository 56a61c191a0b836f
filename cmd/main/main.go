package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"taxonomy/scraper/internal/config"
	"taxonomy/scraper/internal/container"
	"taxonomy/scraper/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	site       string
	versionTag string
	logLevel   string
}

var flags rootFlags

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Extracts the filter taxonomy of supermarket storefronts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&flags.site, "site", "", "site to scrape (overrides run.site)")
	root.PersistentFlags().StringVar(&flags.versionTag, "version-tag", "", "tag recorded with the run metadata")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(newRunCmd(), newEnqueueCmd(), newWorkCmd())
	return root
}

// bootstrap loads configuration, sets up logging and builds the container.
func bootstrap(ctx context.Context) (*container.Container, string, string, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := setupLogging(cfg.Log); err != nil {
		return nil, "", "", err
	}
	log.Info("Configuration loaded successfully")

	site := strings.ToLower(cfg.Run.Site)
	if flags.site != "" {
		site = strings.ToLower(flags.site)
	}
	if flags.versionTag != "" {
		cfg.Run.VersionTag = flags.versionTag
	}

	app, err := container.New(ctx, cfg)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to initialize container: %w", err)
	}

	return app, site, cfg.VersionTag(site), nil
}

func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func requireSite(site string) error {
	if site == "" {
		return fmt.Errorf("no site selected, use --site or run.site")
	}
	return nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape every category of a site in one browser session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, site, version, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := requireSite(site); err != nil {
				return err
			}

			log.Infof("Starting %s scraper (%s)...", site, version)
			report, err := app.Run(cmd.Context(), site, version)
			if report != nil {
				renderReport(os.Stdout, report)
			}
			if err != nil {
				if service.IsTerminal(err) {
					return fmt.Errorf("run aborted: %w", err)
				}
				return err
			}

			log.Info("Application finished successfully")
			return nil
		},
	}
}

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue",
		Short: "Discover the categories of a site and publish them for workers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, site, version, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := requireSite(site); err != nil {
				return err
			}

			n, err := app.Enqueue(cmd.Context(), site, version)
			if err != nil {
				return err
			}

			log.Infof("✅ Published %d categories of %s (%s)", n, site, version)
			return nil
		},
	}
}

func newWorkCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Consume published categories, one browser tab per worker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, _, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if workers > 0 {
				app.Config.Worker.Workers = workers
			}

			return app.Work(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "number of workers (overrides worker.workers)")
	return cmd
}
