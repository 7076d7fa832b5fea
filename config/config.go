package config

import (
	"strings"
	"time"

	"crypto-alerts-bot/internal/logging"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	SourceBinance     = "binance"
	SourceCoinPaprika = "coinpaprika"
)

// Config is the whole bot configuration
type Config struct {
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Debug       bool            `mapstructure:"debug"`
	Admins      []int64         `mapstructure:"admins"`
	Lang        string          `mapstructure:"lang"`
	LocalesPath string          `mapstructure:"locales_path"`
	Alerts      AlertsConfig    `mapstructure:"alerts"`
	Quote       QuoteConfig     `mapstructure:"quote"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Logging     logging.Config  `mapstructure:"logging"`
}

type TelegramConfig struct {
	Token          string `mapstructure:"token"`
	UpdatesTimeout int    `mapstructure:"updates_timeout"`
}

type AlertsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// QuoteConfig selects and tunes the price source
type QuoteConfig struct {
	Source        string        `mapstructure:"source"`
	Currency      string        `mapstructure:"currency"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retries       int           `mapstructure:"retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	RetryMaxDelay time.Duration `mapstructure:"retry_max_delay"`
	APIProKey     string        `mapstructure:"api_pro_key"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Port          int           `mapstructure:"port"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

var envBindings = map[string][]string{
	"telegram.token":           {"TOKEN", "TELEGRAM_BOT_TOKEN"},
	"telegram.updates_timeout": {"TELEGRAM_UPDATES_TIMEOUT"},
	"debug":                    {"DEBUG"},
	"admins":                   {"ADMINS"},
	"lang":                     {"LANG"},
	"locales_path":             {"LOCALES_PATH"},
	"alerts.interval":          {"ALERT_INTERVAL"},
	"quote.source":             {"QUOTE_SOURCE"},
	"quote.currency":           {"QUOTE_CURRENCY"},
	"quote.base_url":           {"QUOTE_BASE_URL"},
	"quote.timeout":            {"QUOTE_TIMEOUT"},
	"quote.retries":            {"QUOTE_RETRIES"},
	"quote.retry_delay":        {"QUOTE_RETRY_DELAY"},
	"quote.retry_max_delay":    {"QUOTE_RETRY_MAX_DELAY"},
	"quote.api_pro_key":        {"API_PRO_KEY"},
	"ratelimit.per_second":     {"RATELIMIT_PER_SECOND"},
	"ratelimit.burst":          {"RATELIMIT_BURST"},
	"metrics.port":             {"METRICS_PORT"},
	"metrics.flush_interval":   {"METRICS_FLUSH_INTERVAL"},
	"database.path":            {"DATABASE_PATH"},
	"logging.level":            {"LOG_LEVEL"},
	"logging.format":           {"LOG_FORMAT"},
}

// Load builds configuration from an optional file, the environment and defaults.
// With an empty path a config.yaml in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, errors.Wrapf(err, "bind env for %s", key)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v, path != ""); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	cfg.Quote.Source = strings.ToLower(cfg.Quote.Source)
	cfg.Quote.Currency = strings.ToUpper(cfg.Quote.Currency)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper, explicit bool) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.updates_timeout", 60)
	v.SetDefault("debug", false)
	v.SetDefault("admins", []int64{})
	v.SetDefault("lang", "en")
	v.SetDefault("locales_path", "locales")

	v.SetDefault("alerts.interval", "30s")

	v.SetDefault("quote.source", SourceBinance)
	v.SetDefault("quote.currency", "EUR")
	v.SetDefault("quote.base_url", "https://api.binance.com")
	v.SetDefault("quote.timeout", "10s")
	v.SetDefault("quote.retries", 3)
	v.SetDefault("quote.retry_delay", "1s")
	v.SetDefault("quote.retry_max_delay", "1s")

	v.SetDefault("ratelimit.per_second", 3.0)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.flush_interval", "5m")

	v.SetDefault("database.path", "data/bot.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToWeakSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required (set TOKEN or TELEGRAM_BOT_TOKEN)")
	}
	if c.Alerts.Interval <= 0 {
		return errors.New("alerts.interval must be greater than zero")
	}
	if c.Quote.Retries < 1 {
		return errors.New("quote.retries must be at least 1")
	}
	if c.Quote.RetryDelay < 0 || c.Quote.RetryMaxDelay < 0 {
		return errors.New("quote retry delays cannot be negative")
	}
	switch c.Quote.Source {
	case SourceBinance, SourceCoinPaprika:
	default:
		return errors.Errorf("quote.source must be %s or %s, got %q", SourceBinance, SourceCoinPaprika, c.Quote.Source)
	}
	if c.Quote.Currency == "" {
		return errors.New("quote.currency cannot be empty")
	}
	return nil
}
