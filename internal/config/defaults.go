package config

import "github.com/ewilliams-labs/chordlens/internal/core/analysis"

const (
	defaultAddr                     = ":8080"
	defaultReadHeaderTimeoutSeconds = 15
	defaultShutdownTimeoutSeconds   = 10
	defaultMaxBodyBytes             = 32 << 20
	defaultStorageDriver            = "sqlite"
	defaultStoragePath              = "chordlens.db"
	defaultWorkerCount              = 2
	defaultQueueSize                = 16
	defaultLogLevel                 = "info"
	defaultLogFormat                = "console"
)

// Default returns the built-in configuration.
func Default() Config {
	a := analysis.DefaultConfig()
	return Config{
		Server: Server{
			Addr:                     defaultAddr,
			ReadHeaderTimeoutSeconds: defaultReadHeaderTimeoutSeconds,
			ShutdownTimeoutSeconds:   defaultShutdownTimeoutSeconds,
			MaxBodyBytes:             defaultMaxBodyBytes,
		},
		Storage: Storage{
			Driver: defaultStorageDriver,
			Path:   defaultStoragePath,
		},
		Analysis: Analysis{
			WindowSize:   a.WindowSize,
			Overlap:      a.Overlap,
			A4Hz:         a.A4,
			SearchCents:  a.SearchCents,
			MinPeakRatio: a.MinPeakRatio,
		},
		Workers: Workers{
			Count:     defaultWorkerCount,
			QueueSize: defaultQueueSize,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
