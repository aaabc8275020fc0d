// Package app wires configuration, storage, the analysis engine and the HTTP
// adapter into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ewilliams-labs/chordlens/internal/adapters/audio"
	"github.com/ewilliams-labs/chordlens/internal/adapters/memory"
	"github.com/ewilliams-labs/chordlens/internal/adapters/rest"
	"github.com/ewilliams-labs/chordlens/internal/adapters/sqlite"
	"github.com/ewilliams-labs/chordlens/internal/config"
	"github.com/ewilliams-labs/chordlens/internal/core/analysis"
	"github.com/ewilliams-labs/chordlens/internal/core/ports"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
	"github.com/ewilliams-labs/chordlens/internal/worker"
)

// App holds the long-lived components of one process.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Engine  *analysis.Engine
	Service *services.Orchestrator
	Pool    *worker.Pool
	Handler *rest.Handler

	closers []func() error
}

// OpenRepository builds the preset repository selected by cfg.
func OpenRepository(cfg config.Storage) (ports.PresetRepository, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		a, err := sqlite.NewAdapter(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize database: %w", err)
		}
		return a, a.Close, nil
	case "memory":
		return memory.NewPresetStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// NewEngine builds the analysis engine from cfg.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*analysis.Engine, error) {
	engine, err := analysis.NewEngine(audio.NewDecoder(logger), cfg.AnalysisConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize analysis engine: %w", err)
	}
	return engine, nil
}

// New wires every component. The worker pool is started; Close stops it.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	repo, closeRepo, err := OpenRepository(cfg.Storage)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		closeRepo()
		return nil, err
	}

	svc := services.NewOrchestrator(engine, repo, cfg.Analysis.A4Hz)
	pool := worker.NewPool(svc, cfg.Workers.Count, cfg.Workers.QueueSize, logger)
	pool.Start()

	handler := rest.NewHandler(svc, pool, rest.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Engine:  engine,
		Service: svc,
		Pool:    pool,
		Handler: handler,
		closers: []func() error{
			func() error { pool.Stop(); return nil },
			closeRepo,
		},
	}, nil
}

// Close stops the pool and releases storage, in that order. Every failure is
// logged; the joined error is returned.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Logger.Error("shutdown step failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Serve runs the HTTP server until ctx ends, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: a.Config.ReadHeaderTimeout(),
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()
	a.Logger.Info("chordlens api listening", slog.String("addr", srv.Addr))

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
