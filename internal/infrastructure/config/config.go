package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the HTTP API, the store and the
// background poller.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	DB         DBConfig         `yaml:"db"`
	Poller     PollerConfig     `yaml:"poller"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type PollerConfig struct {
	// Enabled is tri-state so an absent key keeps the poller on; it is a
	// core delivery path, not an optional add-on.
	Enabled  *bool         `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// IsEnabled reports whether the poller should run; unset means enabled.
func (p PollerConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

type MarketDataConfig struct {
	// AlphaVantageKey enables the primary quote source. When empty, only the
	// keyless fallback source is queried.
	AlphaVantageKey string        `yaml:"alpha_vantage_key"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type TelegramConfig struct {
	// APIBase is overridable for tests; defaults to the public Bot API.
	APIBase        string        `yaml:"api_base"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoadFromFile loads settings from a YAML file, then applies defaults and
// environment overrides. A missing file is not an error.
func LoadFromFile(path string) (Config, error) {
	// Load .env if present so env overrides work in local development.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Poller.Interval == 0 {
		cfg.Poller.Interval = time.Minute
	}
	if cfg.MarketData.RequestTimeout == 0 {
		cfg.MarketData.RequestTimeout = 10 * time.Second
	}
	if cfg.Telegram.APIBase == "" {
		cfg.Telegram.APIBase = "https://api.telegram.org"
	}
	if cfg.Telegram.RequestTimeout == 0 {
		cfg.Telegram.RequestTimeout = 10 * time.Second
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("ALPHA_VANTAGE_API_KEY"); val != "" {
		cfg.MarketData.AlphaVantageKey = val
	}
	if val := os.Getenv("POLLER_ENABLED"); val != "" {
		enabled := val == "true"
		cfg.Poller.Enabled = &enabled
	}
	if val := os.Getenv("POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Poller.Interval = d
		}
	}
	if val := os.Getenv("TELEGRAM_API_BASE"); val != "" {
		cfg.Telegram.APIBase = val
	}
	return cfg
}
