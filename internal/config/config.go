package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tokenizedCompare/internal/finance"
)

type Config struct {
	Port     string `mapstructure:"port"`
	DBPath   string `mapstructure:"db_path"`
	LogLevel string `mapstructure:"log_level"`

	PoolsSource  string `mapstructure:"pools_source"`
	VaultoAPIURL string `mapstructure:"vaulto_api_url"`

	MarketProviders []string      `mapstructure:"market_providers"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	FetchRetries    int           `mapstructure:"fetch_retries"`

	DefaultPeriod     finance.Period `mapstructure:"default_period"`
	DefaultInvestment float64        `mapstructure:"default_investment"`

	TelegramToken    string `mapstructure:"telegram_bot_token"`
	WebhookPublicURL string `mapstructure:"webhook_public_url"`
	OpenAIKey        string `mapstructure:"openai_api_key"`
	AlphaVantageKey  string `mapstructure:"alpha_vantage_api_key"`
	StockDataToken   string `mapstructure:"stockdata_org_api_token"`
}

const (
	PoolsReference = "reference"
	PoolsVaulto    = "vaulto"
	PoolsSQLite    = "sqlite"
)

var defaults = map[string]any{
	"port":               "9095",
	"db_path":            "data/pools.db",
	"log_level":          "info",
	"pools_source":       PoolsReference,
	"vaulto_api_url":     "https://stake.vaulto.ai",
	"market_providers":   "yahoo,alphavantage,stockdata",
	"http_timeout":       "15s",
	"fetch_retries":      3,
	"default_period":     "30d",
	"default_investment": 1000.0,
}

var secrets = []string{
	"telegram_bot_token",
	"webhook_public_url",
	"openai_api_key",
	"alpha_vantage_api_key",
	"stockdata_org_api_token",
}

// Load reads .env (when present), an optional CONFIG_FILE and the environment,
// in increasing priority, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range secrets {
		v.SetDefault(key, "")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.PoolsSource = strings.ToLower(strings.TrimSpace(cfg.PoolsSource))
	cfg.MarketProviders = splitList(cfg.MarketProviders)
	return cfg, cfg.Validate()
}

// splitList accepts a YAML list as well as comma separated entries.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate rejects values the services cannot start with.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is empty")
	}
	switch c.PoolsSource {
	case PoolsReference, PoolsVaulto, PoolsSQLite:
	default:
		return fmt.Errorf("POOLS_SOURCE %q: want reference, vaulto or sqlite", c.PoolsSource)
	}
	if c.PoolsSource == PoolsVaulto {
		if err := validateURL(c.VaultoAPIURL, "http"); err != nil {
			return fmt.Errorf("VAULTO_API_URL: %w", err)
		}
	}
	if c.PoolsSource == PoolsSQLite && c.DBPath == "" {
		return errors.New("DB_PATH is required for the sqlite pool source")
	}
	for _, p := range c.MarketProviders {
		switch p {
		case "yahoo", "alphavantage", "stockdata":
		default:
			return fmt.Errorf("MARKET_PROVIDERS: unknown provider %q", p)
		}
	}
	if len(c.MarketProviders) == 0 {
		return errors.New("MARKET_PROVIDERS is empty")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("invalid HTTP_TIMEOUT")
	}
	if c.FetchRetries < 1 {
		return errors.New("FETCH_RETRIES must be at least 1")
	}
	if _, ok := finance.ParsePeriod(string(c.DefaultPeriod)); !ok {
		return fmt.Errorf("DEFAULT_PERIOD %q is not a known period", c.DefaultPeriod)
	}
	if c.DefaultInvestment < 1 {
		return errors.New("DEFAULT_INVESTMENT must be at least 1")
	}
	if (c.TelegramToken == "") != (c.WebhookPublicURL == "") {
		return errors.New("TELEGRAM_BOT_TOKEN and WEBHOOK_PUBLIC_URL must be set together")
	}
	if c.WebhookPublicURL != "" {
		if err := validateURL(c.WebhookPublicURL, "https"); err != nil {
			return fmt.Errorf("WEBHOOK_PUBLIC_URL: %w", err)
		}
	}
	return nil
}

// TelegramEnabled reports whether the bot has what it needs to run.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.WebhookPublicURL != ""
}

func validateURL(rawURL, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return fmt.Errorf("URL must use %s", protocol)
	}
	return nil
}
