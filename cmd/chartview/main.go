package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"BTCChart/internal/app"
	"BTCChart/internal/config"
	"BTCChart/internal/model"
	"BTCChart/internal/tui"
	"BTCChart/internal/widget"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	tfFlag := flag.String("timeframe", "", "initial timeframe (1d, 30, 365)")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	if err := run(*cfgPath, *tfFlag, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "chartview:", err)
		os.Exit(1)
	}
}

func run(cfgPath, tfFlag, logPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// The terminal belongs to the chart, so logs go to a file or nowhere.
	logger := app.NewLogger(cfg.Log.Level)
	logger.SetOutput(io.Discard)
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	tf := model.Timeframe(cfg.Chart.DefaultTimeframe)
	if tfFlag != "" {
		tf, err = model.ParseTimeframe(tfFlag)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	w := widget.New(a.Store, a.Recorder, logger)
	defer w.Close()

	m, err := tui.New(ctx, w, tf)
	if err != nil {
		return err
	}
	return tui.Run(m)
}
