// Package config loads chordlens settings from TOML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ewilliams-labs/chordlens/internal/core/analysis"
)

// EnvPrefix prefixes every environment override, e.g. CHORDLENS_SERVER_ADDR.
const EnvPrefix = "CHORDLENS_"

// Server contains HTTP listener settings.
type Server struct {
	Addr                     string `toml:"addr"`
	ReadHeaderTimeoutSeconds int    `toml:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `toml:"shutdown_timeout_seconds"`
	MaxBodyBytes             int64  `toml:"max_body_bytes"`
}

// Storage selects the preset repository.
type Storage struct {
	Driver string `toml:"driver"` // sqlite | memory
	Path   string `toml:"path"`
}

// Analysis mirrors analysis.Config.
type Analysis struct {
	WindowSize   int     `toml:"window_size"`
	Overlap      float64 `toml:"overlap"`
	A4Hz         float64 `toml:"a4_hz"`
	SearchCents  float64 `toml:"search_cents"`
	MinPeakRatio float64 `toml:"min_peak_ratio"`
}

// Workers sizes the analysis pool.
type Workers struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for chordlens.
type Config struct {
	Server   Server   `toml:"server"`
	Storage  Storage  `toml:"storage"`
	Analysis Analysis `toml:"analysis"`
	Workers  Workers  `toml:"workers"`
	Logging  Logging  `toml:"logging"`
}

// Load applies defaults, then the file at path when it exists, then
// environment overrides, and validates the result. An empty path skips the
// file. The boolean reports whether a file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	exists := false
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			decoder := toml.NewDecoder(file)
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&cfg); err != nil {
				return nil, false, fmt.Errorf("parse config: %w", err)
			}
			exists = true
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, false, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// AnalysisConfig converts the [analysis] section for the engine.
func (c *Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		WindowSize:   c.Analysis.WindowSize,
		Overlap:      c.Analysis.Overlap,
		A4:           c.Analysis.A4Hz,
		SearchCents:  c.Analysis.SearchCents,
		MinPeakRatio: c.Analysis.MinPeakRatio,
	}
}

func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.Server.ReadHeaderTimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	float := func(key string, dst *float64) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = f
		return nil
	}

	str("SERVER_ADDR", &c.Server.Addr)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_PATH", &c.Storage.Path)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup(EnvPrefix + "SERVER_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%sSERVER_MAX_BODY_BYTES: %w", EnvPrefix, err)
		}
		c.Server.MaxBodyBytes = n
	}

	for _, e := range []error{
		integer("ANALYSIS_WINDOW_SIZE", &c.Analysis.WindowSize),
		float("ANALYSIS_OVERLAP", &c.Analysis.Overlap),
		float("ANALYSIS_A4_HZ", &c.Analysis.A4Hz),
		float("ANALYSIS_SEARCH_CENTS", &c.Analysis.SearchCents),
		float("ANALYSIS_MIN_PEAK_RATIO", &c.Analysis.MinPeakRatio),
		integer("WORKERS_COUNT", &c.Workers.Count),
		integer("WORKERS_QUEUE_SIZE", &c.Workers.QueueSize),
	} {
		if e != nil {
			return e
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
