package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePending(); err != nil {
		return err
	}
	if _, err := c.VersionPolicy(); err != nil {
		return err
	}
	if _, err := c.TitleMedia(); err != nil {
		return err
	}
	if err := c.validateConsole(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// The pending file is removed through the SD card, so it must live under
// the SD root.
func (c *Config) validatePending() error {
	root := filepath.Clean(c.Paths.SDRoot)
	pending := filepath.Clean(c.PendingPath())
	rel, err := filepath.Rel(root, pending)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("pending.path %s must be a file under paths.sd_root %s", pending, root)
	}
	return nil
}

func (c *Config) validateConsole() error {
	switch c.Console.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("console.color must be auto, always or never (got %q)", c.Console.Color)
	}
	if c.Console.RefreshIntervalMS > 1000 {
		return fmt.Errorf("console.refresh_interval_ms must be at most 1000 (got %d)", c.Console.RefreshIntervalMS)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}
