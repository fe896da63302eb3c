package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenizedCompare/internal/finance"
)

// inTempDir keeps a developer's .env out of the test.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	for _, k := range []string{"PORT", "POOLS_SOURCE", "MARKET_PROVIDERS", "TELEGRAM_BOT_TOKEN", "WEBHOOK_PUBLIC_URL", "CONFIG_FILE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9095", cfg.Port)
	assert.Equal(t, PoolsReference, cfg.PoolsSource)
	assert.Equal(t, []string{"yahoo", "alphavantage", "stockdata"}, cfg.MarketProviders)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.FetchRetries)
	assert.Equal(t, finance.Period30d, cfg.DefaultPeriod)
	assert.InDelta(t, 1000, cfg.DefaultInvestment, 1e-9)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadFromEnvAndDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ALPHA_VANTAGE_API_KEY=from-dotenv\n"), 0o600))
	t.Setenv("PORT", "8080")
	t.Setenv("POOLS_SOURCE", "Vaulto")
	t.Setenv("MARKET_PROVIDERS", " stockdata , yahoo ")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_PUBLIC_URL", "https://bot.example.com")
	t.Cleanup(func() { os.Unsetenv("ALPHA_VANTAGE_API_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, PoolsVaulto, cfg.PoolsSource)
	assert.Equal(t, []string{"stockdata", "yahoo"}, cfg.MarketProviders)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "from-dotenv", cfg.AlphaVantageKey)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoadConfigFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "cfg.yaml")
	body := "default_period: 1y\nfetch_retries: 5\nhttp_timeout: 2s\nmarket_providers: [Yahoo, stockdata]\ndefault_investment: 250\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MARKET_PROVIDERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, finance.Period1y, cfg.DefaultPeriod)
	assert.Equal(t, 5, cfg.FetchRetries)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"yahoo", "stockdata"}, cfg.MarketProviders)
	assert.InDelta(t, 250, cfg.DefaultInvestment, 1e-9)
}

func validConfig() Config {
	return Config{
		Port:              "9095",
		PoolsSource:       PoolsReference,
		MarketProviders:   []string{"yahoo"},
		HTTPTimeout:       time.Second,
		FetchRetries:      1,
		DefaultPeriod:     finance.Period30d,
		DefaultInvestment: 1000,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(*Config){
		"empty port":       func(c *Config) { c.Port = "" },
		"bad pool source":  func(c *Config) { c.PoolsSource = "csv" },
		"bad vaulto url":   func(c *Config) { c.PoolsSource = PoolsVaulto; c.VaultoAPIURL = "ftp://x" },
		"sqlite no path":   func(c *Config) { c.PoolsSource = PoolsSQLite; c.DBPath = "" },
		"unknown provider": func(c *Config) { c.MarketProviders = []string{"bloomberg"} },
		"no providers":     func(c *Config) { c.MarketProviders = nil },
		"zero timeout":     func(c *Config) { c.HTTPTimeout = 0 },
		"zero retries":     func(c *Config) { c.FetchRetries = 0 },
		"bad period":       func(c *Config) { c.DefaultPeriod = "2w" },
		"tiny investment":  func(c *Config) { c.DefaultInvestment = 0.5 },
		"token only":       func(c *Config) { c.TelegramToken = "x" },
		"http webhook":     func(c *Config) { c.TelegramToken = "x"; c.WebhookPublicURL = "http://bot.example.com" },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
