package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePending()
	c.normalizeFinalize()
	c.normalizeConsole()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("CIFINALIZE_SD_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SDRoot = value
	}
	if value, ok := os.LookupEnv("CIFINALIZE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SDRoot) == "" {
		c.Paths.SDRoot = defaultSDRoot
	}
	if c.Paths.SDRoot, err = expandPath(c.Paths.SDRoot); err != nil {
		return fmt.Errorf("paths.sd_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Ticket.TemplatePath, err = expandPath(strings.TrimSpace(c.Ticket.TemplatePath)); err != nil {
		return fmt.Errorf("ticket.template_path: %w", err)
	}
	return nil
}

func (c *Config) normalizePending() {
	c.Pending.Path = strings.TrimSpace(c.Pending.Path)
	if c.Pending.Path == "" {
		c.Pending.Path = defaultPendingPath
	}
	c.Pending.VersionPolicy = strings.ToLower(strings.TrimSpace(c.Pending.VersionPolicy))
	if c.Pending.VersionPolicy == "" {
		c.Pending.VersionPolicy = defaultVersionPolicy
	}
	if c.Pending.ExpectedVersion == 0 {
		c.Pending.ExpectedVersion = defaultExpectedVersion
	}
}

func (c *Config) normalizeFinalize() {
	media := make([]string, 0, len(c.Finalize.TitleMedia))
	for _, value := range c.Finalize.TitleMedia {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			media = append(media, trimmed)
		}
	}
	if len(media) == 0 {
		media = []string{defaultTitleMedia}
	}
	c.Finalize.TitleMedia = media
}

func (c *Config) normalizeConsole() {
	if c.Console.RefreshIntervalMS <= 0 {
		c.Console.RefreshIntervalMS = defaultRefreshIntervalMS
	}
	c.Console.Color = strings.ToLower(strings.TrimSpace(c.Console.Color))
	if c.Console.Color == "" {
		c.Console.Color = defaultColor
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
