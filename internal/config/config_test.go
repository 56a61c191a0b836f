package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
run:
  site: dia
  store: postgres
browser:
  driver: static
  snapshots:
    - url: https://www.coto.example.com/
      file: ./testdata/home.html
redis:
  enabled: true
  min_idle_time: 90s
sites:
  dia:
    require_count: true
    timings:
      settle: 500ms
    selectors:
      option_count: ["span.count"]
  coto:
    home_url: https://www.coto.example.com/
    menu_action: hover
    selectors:
      menu_trigger: ["a.menu"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	t.Run("file values and defaults", func(t *testing.T) {
		assert.Equal(t, StorePostgres, cfg.Run.Store)
		assert.Equal(t, DriverStatic, cfg.Browser.Driver)
		assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
		assert.Equal(t, []SnapshotConfig{{URL: "https://www.coto.example.com/", File: "./testdata/home.html"}}, cfg.Browser.Snapshots)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 90*time.Second, cfg.Redis.MinIdleTime)
		assert.Equal(t, "taxonomy_consumer", cfg.Redis.ConsumerGroup)
		assert.Equal(t, 3, cfg.Worker.MaxRetries)
		assert.Equal(t, "host=localhost port=5432 user=taxonomy_user password=taxonomy_pass dbname=taxonomy sslmode=disable", cfg.Database.DSN())
	})

	t.Run("configured site is merged over its profile", func(t *testing.T) {
		dia, err := cfg.Site("dia")
		require.NoError(t, err)

		assert.Equal(t, "https://diaonline.supermercadosdia.com.ar/", dia.HomeURL)
		assert.True(t, dia.RequireCount)
		assert.Equal(t, []string{"Gama de Precios", "sellerName"}, dia.IgnoredGroups)
		assert.Equal(t, []string{"span.count"}, dia.Selectors["option_count"])
		assert.Equal(t, []string{"label.vtex-checkbox__label"}, dia.Selectors["option_row"])
		assert.Equal(t, 500*time.Millisecond, dia.Timings.Settle)
		assert.Equal(t, 20*time.Second, dia.Timings.PageLoad)
		assert.Equal(t, 50, dia.Timings.RevealMaxIterations)
		assert.Equal(t, 1, dia.Passes)
	})

	t.Run("new site gets default timings", func(t *testing.T) {
		coto, err := cfg.Site("COTO")
		require.NoError(t, err)

		assert.Equal(t, "hover", coto.MenuAction)
		assert.Equal(t, []string{"a.menu"}, coto.Selectors["menu_trigger"])
		assert.Equal(t, 3, coto.Timings.ReestablishAttempts)
	})

	t.Run("untouched profiles are available", func(t *testing.T) {
		for _, name := range []string{"carrefour", "disco", "jumbo"} {
			site, err := cfg.Site(name)
			require.NoError(t, err, name)
			assert.NotEmpty(t, site.Selectors["category_link"], name)
		}
		_, err := cfg.Site("vea")
		assert.Error(t, err)
	})
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("RUN_STORE", "memory")
	t.Setenv("WORKER_WORKERS", "5")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Run.Store)
	assert.Equal(t, 5, cfg.Worker.Workers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "store", body: "run:\n  store: mongo\n"},
		{name: "driver", body: "browser:\n  driver: selenium\n"},
		{name: "menu action", body: "sites:\n  coto:\n    home_url: https://coto.example.com/\n    menu_action: drag\n"},
		{name: "home url", body: "sites:\n  coto:\n    menu_action: click\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVersionTag(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "jumbo_scraper_v1.0", cfg.VersionTag("Jumbo"))

	cfg.Run.VersionTag = "2024-05-01"
	assert.Equal(t, "2024-05-01", cfg.VersionTag("jumbo"))
}

func TestPresetsAreIndependent(t *testing.T) {
	a := Presets()
	a["dia"].Selectors["option_row"][0] = "changed"

	assert.Equal(t, "label.vtex-checkbox__label", Presets()["dia"].Selectors["option_row"][0])
}
