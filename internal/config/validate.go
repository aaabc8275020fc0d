package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.ReadHeaderTimeoutSeconds <= 0 {
		return errors.New("server.read_header_timeout_seconds must be positive")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return errors.New("server.shutdown_timeout_seconds must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("storage.driver: unsupported value %q (want sqlite or memory)", c.Storage.Driver)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	a := c.Analysis
	if a.WindowSize < 256 || a.WindowSize&(a.WindowSize-1) != 0 {
		return fmt.Errorf("analysis.window_size must be a power of two >= 256, got %d", a.WindowSize)
	}
	if a.Overlap < 0 || a.Overlap >= 1 {
		return fmt.Errorf("analysis.overlap must be in [0, 1), got %g", a.Overlap)
	}
	if !positiveFinite(a.A4Hz) {
		return fmt.Errorf("analysis.a4_hz must be positive, got %g", a.A4Hz)
	}
	if !positiveFinite(a.SearchCents) || a.SearchCents > 600 {
		return fmt.Errorf("analysis.search_cents must be in (0, 600], got %g", a.SearchCents)
	}
	if !positiveFinite(a.MinPeakRatio) || a.MinPeakRatio >= 1 {
		return fmt.Errorf("analysis.min_peak_ratio must be in (0, 1), got %g", a.MinPeakRatio)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be at least 1")
	}
	if c.Workers.QueueSize < 1 {
		return errors.New("workers.queue_size must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
