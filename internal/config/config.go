package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"cifinalize/internal/pendingdb"
	"cifinalize/internal/platform"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SDRoot   string `toml:"sd_root"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Pending describes the pending-install database.
type Pending struct {
	// Path is resolved against Paths.SDRoot when relative.
	Path            string `toml:"path"`
	VersionPolicy   string `toml:"version_policy"`
	ExpectedVersion int    `toml:"expected_version"`
}

// Ticket contains ticket template settings.
type Ticket struct {
	// TemplatePath points at a 0x350-byte base ticket. Empty selects the
	// built-in template.
	TemplatePath string `toml:"template_path"`
}

// Finalize contains engine behaviour switches.
type Finalize struct {
	DeleteOnSuccess bool     `toml:"delete_on_success"`
	TitleMedia      []string `toml:"title_media"`
}

// Console contains settings for the interactive console front end.
type Console struct {
	WaitForExit       bool   `toml:"wait_for_exit"`
	RefreshIntervalMS int    `toml:"refresh_interval_ms"`
	Color             string `toml:"color"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cifinalize.
//
// Configuration sections by subsystem:
//   - Paths: SD root, state and log directories
//   - Pending: pending database location and version acceptance policy
//   - Ticket: base ticket template
//   - Finalize: cleanup and installed-title media
//   - Console: exit prompt and output colour
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Pending  Pending  `toml:"pending"`
	Ticket   Ticket   `toml:"ticket"`
	Finalize Finalize `toml:"finalize"`
	Console  Console  `toml:"console"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cifinalize/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	// A missing .env is the common case.
	_ = godotenv.Load(".env")

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cifinalize.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The SD root is
// never created; it must already be mounted.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PendingPath returns the absolute location of the pending database.
func (c *Config) PendingPath() string {
	if filepath.IsAbs(c.Pending.Path) {
		return c.Pending.Path
	}
	return filepath.Join(c.Paths.SDRoot, c.Pending.Path)
}

// ConsoleDBPath returns the location of the host console store.
func (c *Config) ConsoleDBPath() string {
	return filepath.Join(c.Paths.StateDir, "console.db")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "cifinalize.log")
}

// VersionPolicy returns the pending database version policy.
func (c *Config) VersionPolicy() (pendingdb.Policy, error) {
	mode, err := pendingdb.ParseMode(c.Pending.VersionPolicy)
	if err != nil {
		return pendingdb.Policy{}, fmt.Errorf("pending.version_policy: %w", err)
	}
	policy := pendingdb.Policy{Mode: mode}
	if mode == pendingdb.ModeStrict {
		if c.Pending.ExpectedVersion < 0 {
			return pendingdb.Policy{}, fmt.Errorf("pending.expected_version must not be negative")
		}
		policy.Expected = uint32(c.Pending.ExpectedVersion)
	}
	if err := policy.Validate(); err != nil {
		return pendingdb.Policy{}, fmt.Errorf("pending: %w", err)
	}
	return policy, nil
}

// TitleMedia returns the media queried for installed titles.
func (c *Config) TitleMedia() ([]platform.Media, error) {
	media := make([]platform.Media, 0, len(c.Finalize.TitleMedia))
	for _, value := range c.Finalize.TitleMedia {
		m, err := platform.ParseMedia(value)
		if err != nil {
			return nil, fmt.Errorf("finalize.title_media: %w", err)
		}
		media = append(media, m)
	}
	return media, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
