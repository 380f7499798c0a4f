package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"BTCChart/internal/app"
	"BTCChart/internal/config"
	"BTCChart/internal/model"
	"BTCChart/internal/scheduler"
	"BTCChart/internal/server"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		app.NewLogger("info").Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}
	logger.Info("BTCChart server starting...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer a.Close()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, a.Store, logger)
	if err := sched.RegisterRefresh(cfg.Schedule.RefreshCron); err != nil {
		logger.Fatalf("register refresh task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	h := server.NewHandler(a.Store, a.Recorder, server.Config{
		DefaultTimeframe: model.Timeframe(cfg.Chart.DefaultTimeframe),
		ChartWidth:       cfg.Chart.Width,
		ChartHeight:      cfg.Chart.Height,
		PointerRate:      cfg.WebSocket.PointerRate,
		PointerBurst:     cfg.WebSocket.PointerBurst,
	}, logger)

	if err := server.New(cfg.Server.Addr, h, logger).Run(ctx); err != nil {
		logger.Errorf("http server: %v", err)
	}
	logger.Info("BTCChart server stopped")
}
