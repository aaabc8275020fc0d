package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/chordlens/internal/app"
	"github.com/ewilliams-labs/chordlens/internal/config"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
	"github.com/ewilliams-labs/chordlens/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to the command's stderr so tables on stdout stay clean.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

// withService runs fn against an orchestrator backed by the configured
// storage. The repository is closed afterwards.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*services.Orchestrator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd, cfg)
	if err != nil {
		return err
	}
	repo, closeRepo, err := app.OpenRepository(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeRepo()

	engine, err := app.NewEngine(cfg, logger)
	if err != nil {
		return err
	}
	return fn(services.NewOrchestrator(engine, repo, cfg.Analysis.A4Hz))
}
