// Package app assembles the chart dependencies shared by the server and the terminal viewer.
package app

import (
	"context"
	"fmt"
	"os"

	"BTCChart/internal/cache"
	"BTCChart/internal/config"
	"BTCChart/internal/generator"
	"BTCChart/internal/recorder"
	"BTCChart/internal/store"

	"github.com/sirupsen/logrus"
)

// App holds the long-lived components built from the configuration.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Cache    cache.SeriesCache
	Recorder recorder.Recorder
	Store    *store.Store
}

// NewLogger builds the logrus logger used across the process.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Build opens the cache and recorder and initialises the series store.
// Cache and recorder failures degrade to their no-op versions.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	switch cfg.Cache.Backend {
	case "file":
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			logger.Warnf("init file cache failed, using none: %v", err)
			a.Cache = cache.NewNoopCache()
		} else {
			a.Cache = fc
		}
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL)
		if err != nil {
			logger.Warnf("init redis cache at %s failed, using none: %v", cfg.Cache.RedisAddr, err)
			a.Cache = cache.NewNoopCache()
		} else {
			a.Cache = rc
		}
	default:
		a.Cache = cache.NewNoopCache()
	}
	logger.Infof("series cache: %s", a.Cache.Name())

	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warnf("init sqlite recorder failed, using noop: %v", err)
			a.Recorder = recorder.NewNoopRecorder()
		} else {
			a.Recorder = sr
		}
	} else {
		a.Recorder = recorder.NewNoopRecorder()
	}

	gen := generator.NewSeeded(cfg.Chart.Seed)
	st, err := store.New(ctx, gen, store.Options{
		Mode:       store.Mode(cfg.Chart.Mode),
		StartPrice: cfg.Chart.StartPrice,
		Cache:      a.Cache,
		CacheTTL:   cfg.Cache.TTL,
		Recorder:   a.Recorder,
		Logger:     logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init series store: %w", err)
	}
	a.Store = st
	logger.Infof("series store ready (mode=%s, start price=%.2f)", st.Mode(), cfg.Chart.StartPrice)
	return a, nil
}

// Close releases the recorder and cache.
func (a *App) Close() {
	if a.Recorder != nil {
		if err := a.Recorder.Close(); err != nil {
			a.Logger.Errorf("close recorder: %v", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Errorf("close cache: %v", err)
		}
	}
}
