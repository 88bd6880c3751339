package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := applyDefaults(Config{})

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.DB.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.Poller.Interval)
	assert.True(t, cfg.Poller.IsEnabled(), "poller runs unless explicitly disabled")
	assert.Equal(t, 10*time.Second, cfg.MarketData.RequestTimeout)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBase)
	assert.Equal(t, 10*time.Second, cfg.Telegram.RequestTimeout)
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "demo-key")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("POLLER_ENABLED", "true")

	cfg := applyEnv(Config{})

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "demo-key", cfg.MarketData.AlphaVantageKey)
	assert.Equal(t, 30*time.Second, cfg.Poller.Interval)
	assert.True(t, cfg.Poller.IsEnabled())
}

func TestConfig_PollerDisabledExplicitly(t *testing.T) {
	t.Setenv("POLLER_ENABLED", "false")
	cfg := applyEnv(Config{})
	assert.False(t, cfg.Poller.IsEnabled())
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
http:
  addr: ":7070"
db:
  dsn: "postgres://localhost/alerts"
poller:
  enabled: true
  interval: 2m
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://localhost/alerts", cfg.DB.DSN)
	assert.True(t, cfg.Poller.IsEnabled())
	assert.Equal(t, 2*time.Minute, cfg.Poller.Interval)
	// defaults still fill the gaps
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIBase)
}

func TestConfig_LoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}
