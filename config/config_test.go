package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, env := range envs {
			t.Setenv(env, "")
			require.NoError(t, os.Unsetenv(env))
		}
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN", "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 60, cfg.Telegram.UpdatesTimeout)
	assert.Equal(t, 30*time.Second, cfg.Alerts.Interval)
	assert.Equal(t, SourceBinance, cfg.Quote.Source)
	assert.Equal(t, "EUR", cfg.Quote.Currency)
	assert.Equal(t, 3, cfg.Quote.Retries)
	assert.Equal(t, time.Second, cfg.Quote.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.Quote.Timeout)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 5*time.Minute, cfg.Metrics.FlushInterval)
	assert.Equal(t, "data/bot.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Admins)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "456:def")
	t.Setenv("ADMINS", "11,22")
	t.Setenv("ALERT_INTERVAL", "1m")
	t.Setenv("QUOTE_SOURCE", "CoinPaprika")
	t.Setenv("QUOTE_CURRENCY", "usd")
	t.Setenv("QUOTE_RETRIES", "5")
	t.Setenv("DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "456:def", cfg.Telegram.Token)
	assert.Equal(t, []int64{11, 22}, cfg.Admins)
	assert.Equal(t, time.Minute, cfg.Alerts.Interval)
	assert.Equal(t, SourceCoinPaprika, cfg.Quote.Source)
	assert.Equal(t, "USD", cfg.Quote.Currency)
	assert.Equal(t, 5, cfg.Quote.Retries)
	assert.True(t, cfg.Debug)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "789:ghi"
admins: [1, 2, 3]
alerts:
  interval: 45s
quote:
  retry_delay: 2s
  retry_max_delay: 8s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "789:ghi", cfg.Telegram.Token)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Admins)
	assert.Equal(t, 45*time.Second, cfg.Alerts.Interval)
	assert.Equal(t, 2*time.Second, cfg.Quote.RetryDelay)
	assert.Equal(t, 8*time.Second, cfg.Quote.RetryMaxDelay)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN", "x")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN", "x")
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"missing token":  func(c *Config) { c.Telegram.Token = "" },
		"zero interval":  func(c *Config) { c.Alerts.Interval = 0 },
		"no retries":     func(c *Config) { c.Quote.Retries = 0 },
		"negative delay": func(c *Config) { c.Quote.RetryDelay = -time.Second },
		"unknown source": func(c *Config) { c.Quote.Source = "kraken" },
		"no currency":    func(c *Config) { c.Quote.Currency = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := *base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
