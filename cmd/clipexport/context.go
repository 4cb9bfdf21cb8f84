package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipexport/internal/config"
	"clipexport/internal/exporter"
	"clipexport/internal/history"
	"clipexport/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerValue returns the process logger, falling back to console output on
// stderr when the configured log file cannot be opened.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger, _ = logging.NewFromConfig(nil)
			logging.WarnWithContext(logger, "configured logger unavailable; using console only", "logger_init_failed",
				logging.Error(err),
			)
		}
		c.logger = logger
	})
	return c.logger
}

// withService opens history and builds an export service for fn. A history
// database that cannot be opened disables history instead of failing.
func (c *commandContext) withService(fn func(*exporter.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.loggerValue()
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded in history"),
		)
		store = nil
	} else {
		defer store.Close()
	}
	return fn(exporter.NewService(cfg, store, logger))
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
