package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"BTCChart/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Chart struct {
		StartPrice       float64 `yaml:"start_price"`
		Mode             string  `yaml:"mode"`
		DefaultTimeframe string  `yaml:"default_timeframe"`
		Seed             int64   `yaml:"seed"`
		Width            int     `yaml:"width"`
		Height           int     `yaml:"height"`
	} `yaml:"chart"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Cache struct {
		Backend       string        `yaml:"backend"`
		Dir           string        `yaml:"dir"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	WebSocket struct {
		PointerRate  float64 `yaml:"pointer_rate"`
		PointerBurst int     `yaml:"pointer_burst"`
	} `yaml:"websocket"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("START_PRICE"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("START_PRICE: %w", err)
		}
		cfg.Chart.StartPrice = p
	}
	if v := os.Getenv("CHART_MODE"); v != "" {
		cfg.Chart.Mode = v
	}
	if v := os.Getenv("CHART_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CHART_SEED: %w", err)
		}
		cfg.Chart.Seed = seed
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Chart.StartPrice == 0 {
		cfg.Chart.StartPrice = 60000
	}
	if cfg.Chart.Mode == "" {
		cfg.Chart.Mode = "pregenerated"
	}
	if cfg.Chart.DefaultTimeframe == "" {
		cfg.Chart.DefaultTimeframe = string(model.Timeframe1Day)
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 800
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 400
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "none"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data/series"
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.WebSocket.PointerRate == 0 {
		cfg.WebSocket.PointerRate = 60
	}
	if cfg.WebSocket.PointerBurst == 0 {
		cfg.WebSocket.PointerBurst = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Chart.StartPrice <= 0 {
		return fmt.Errorf("chart.start_price must be positive")
	}
	if c.Chart.Mode != "pregenerated" && c.Chart.Mode != "fresh" {
		return fmt.Errorf("chart.mode must be pregenerated or fresh, got %q", c.Chart.Mode)
	}
	if !model.Timeframe(c.Chart.DefaultTimeframe).Valid() {
		return fmt.Errorf("chart.default_timeframe %q is not a known timeframe", c.Chart.DefaultTimeframe)
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		return fmt.Errorf("chart.width and chart.height must not be negative")
	}
	switch c.Cache.Backend {
	case "none", "file", "redis":
	default:
		return fmt.Errorf("cache.backend must be none, file or redis, got %q", c.Cache.Backend)
	}
	if c.WebSocket.PointerRate < 0 || c.WebSocket.PointerBurst < 0 {
		return fmt.Errorf("websocket pointer limits must not be negative")
	}
	return nil
}
