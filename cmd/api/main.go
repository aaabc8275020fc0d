package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ewilliams-labs/chordlens/internal/app"
	"github.com/ewilliams-labs/chordlens/internal/config"
	"github.com/ewilliams-labs/chordlens/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// 1. Configuration: defaults, optional TOML file, CHORDLENS_* environment.
	configPath := flag.String("config", os.Getenv("CHORDLENS_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, fromFile, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	logger.Info("configuration loaded",
		slog.Bool("from_file", fromFile),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("window_size", cfg.Analysis.WindowSize),
		slog.Float64("a4_hz", cfg.Analysis.A4Hz),
		slog.Int("workers", cfg.Workers.Count))

	// 2. Storage, engine, pool and HTTP adapter.
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("shutdown: %w", cerr)
		}
	}()

	// 3. Serve until SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}
