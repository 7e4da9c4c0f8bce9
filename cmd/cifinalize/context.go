package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cifinalize/internal/config"
	"cifinalize/internal/logging"
	"cifinalize/internal/platform/consolestore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
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
		cfg, resolved, exists, err := config.Load(path)
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
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// logger builds the file logger for cfg. Failures fall back to a no-op
// logger so console output is never lost to a logging problem.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config, verbose bool) *slog.Logger {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging disabled: %v\n", err)
		logger = logging.NewNop()
	}
	if verbose {
		logger = logging.Tee(logger, cmd.ErrOrStderr(), "debug")
	}
	return logger
}

// withStore opens the host console store for the duration of fn.
func (c *commandContext) withStore(fn func(*consolestore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := consolestore.OpenConfig(cfg)
	if err != nil {
		return fmt.Errorf("open console store: %w", err)
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

// parseTitleID accepts a 64-bit title id in hex, with or without 0x.
func parseTitleID(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if trimmed == "" || len(trimmed) > 16 {
		return 0, fmt.Errorf("invalid title id %q: want up to 16 hex digits", value)
	}
	id, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid title id %q: %w", value, err)
	}
	return id, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
