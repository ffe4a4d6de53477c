package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Store      StoreConfig      `yaml:"store"`
	Market     MarketConfig     `yaml:"market"`
	Polling    PollingConfig    `yaml:"polling"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	BriefAgent BriefAgentConfig `yaml:"brief_agent"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type UpstreamConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type StoreConfig struct {
	Driver string       `yaml:"driver"` // sqlite/redis
	Sqlite SqliteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MarketConfig struct {
	Timezone       string `yaml:"timezone"`
	PreOpenAt      string `yaml:"pre_open_at"`
	OpenAt         string `yaml:"open_at"`
	CloseAt        string `yaml:"close_at"`
	StatusCheckSec int    `yaml:"status_check_sec"`
}

type PollingConfig struct {
	IndicesSec      int    `yaml:"indices_sec"`
	SectorsSec      int    `yaml:"sectors_sec"`
	TopMoversSec    int    `yaml:"top_movers_sec"`
	BreadthSec      int    `yaml:"breadth_sec"`
	OptionsSec      int    `yaml:"options_sec"`
	OptionsExchange string `yaml:"options_exchange"`
	OptionsLimit    int    `yaml:"options_limit"`
}

type RateLimitConfig struct {
	Enabled   bool    `yaml:"enabled"`
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type BriefAgentConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	ByAzure    bool   `yaml:"by_azure"`
	APIVersion string `yaml:"api_version"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Upstream: UpstreamConfig{
			BaseURL:   "http://localhost:8000/api/v1/dashboard",
			TimeoutMs: 8000,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Sqlite: SqliteConfig{Path: "data/dashboard.db"},
			Redis:  RedisConfig{KeyPrefix: "dashboard:pref:"},
		},
		Market: MarketConfig{
			Timezone:       "Asia/Kolkata",
			PreOpenAt:      "09:00",
			OpenAt:         "09:15",
			CloseAt:        "15:30",
			StatusCheckSec: 60,
		},
		Polling: PollingConfig{
			IndicesSec:      5,
			SectorsSec:      15,
			TopMoversSec:    10,
			BreadthSec:      15,
			OptionsSec:      60,
			OptionsExchange: "NFO",
			OptionsLimit:    10,
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			PerSecond: 10,
			Burst:     30,
		},
		BriefAgent: BriefAgentConfig{
			Enabled:   false,
			Model:     "gpt-4.1-mini",
			TimeoutMs: 10000,
		},
	}
}

// Load reads the yaml file at path on top of Default. A missing file is not an
// error: the defaults plus env overrides are enough to run locally.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Store.Redis.URL = v
	}
	if v := os.Getenv("MARKET_OPEN_AT"); v != "" {
		cfg.Market.OpenAt = v
	}
	return nil
}

func (c *Config) validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "", "sqlite":
		c.Store.Driver = "sqlite"
	case "redis":
		if c.Store.Redis.URL == "" {
			return fmt.Errorf("store.redis.url is required when store.driver=redis")
		}
	default:
		return fmt.Errorf("invalid store.driver: %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("upstream.base_url is empty")
	}
	return nil
}
