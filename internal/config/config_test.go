package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
exchange:
  api_url: https://api.example.com/v1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 10, cfg.Exchange.TimeoutSeconds)
	assert.Equal(t, 5.0, cfg.Exchange.RequestsPerSecond)
	assert.Equal(t, 60, cfg.Sync.IntervalSeconds)
	assert.Equal(t, 30, cfg.Sync.InitialDelaySeconds)
	assert.Equal(t, 3, cfg.Sync.BreakerThreshold)
	assert.Equal(t, "/data/db/predictbot.db", cfg.Store.DBPath)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, ":9991", cfg.Admin.HTTPAddr)
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
exchange:
  api_url: https://api.example.com/v1
sync:
  initial_delay_seconds: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit zero in the file must not be replaced by the default.
	assert.Equal(t, 0, cfg.Sync.InitialDelaySeconds)
	assert.Equal(t, 60, cfg.Sync.IntervalSeconds)
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
exchange:
  api_url: https://base.example.com/v1
  timeout_seconds: 20
sync:
  interval_seconds: 120
`)
	path := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
exchange:
  api_url: https://override.example.com/v1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// The including file wins over its includes.
	assert.Equal(t, "https://override.example.com/v1", cfg.Exchange.APIURL)
	assert.Equal(t, 20, cfg.Exchange.TimeoutSeconds)
	assert.Equal(t, 120, cfg.Sync.IntervalSeconds)
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	path := writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing api url", func(t *testing.T) {
		path := writeConfig(t, dir, "no_api.yaml", "app:\n  log_level: debug\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exchange.api_url")
	})

	t.Run("telegram enabled without token", func(t *testing.T) {
		path := writeConfig(t, dir, "tg.yaml", `
exchange:
  api_url: https://api.example.com/v1
notify:
  telegram:
    enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bot_token")
	})

	t.Run("bad interval", func(t *testing.T) {
		path := writeConfig(t, dir, "interval.yaml", `
exchange:
  api_url: https://api.example.com/v1
sync:
  interval_seconds: -5
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.interval_seconds")
	})
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
exchange:
  api_url: https://api.example.com/v1
sync:
  interval_seconds: 60
`)

	w, err := Watch(path)
	require.NoError(t, err)
	assert.Equal(t, 60, w.Current().Sync.IntervalSeconds)

	writeConfig(t, dir, "config.yaml", `
exchange:
  api_url: https://api.example.com/v1
sync:
  interval_seconds: 15
`)
	require.NoError(t, w.reload())
	assert.Equal(t, 15, w.Current().Sync.IntervalSeconds)
}

func TestWatcherReloadKeepsLastGoodOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
exchange:
  api_url: https://api.example.com/v1
`)

	w, err := Watch(path)
	require.NoError(t, err)

	writeConfig(t, dir, "config.yaml", "exchange:\n  timeout_seconds: 5\n")
	require.Error(t, w.reload())
	assert.Equal(t, "https://api.example.com/v1", w.Current().Exchange.APIURL)
}
