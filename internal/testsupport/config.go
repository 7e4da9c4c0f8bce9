package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cifinalize/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The SD root is created so the pending file can be written into it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SDRoot = filepath.Join(base, "sdmc")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Console.WaitForExit = false

	if err := os.MkdirAll(cfgVal.Paths.SDRoot, 0o755); err != nil {
		t.Fatalf("mkdir sd root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithKeepPending disables removal of the pending file after a run.
func WithKeepPending() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Finalize.DeleteOnSuccess = false
	}
}

// WithStrictVersion selects the strict version policy.
func WithStrictVersion(version int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pending.VersionPolicy = "strict"
		b.cfg.Pending.ExpectedVersion = version
	}
}

// WithTemplateFile writes raw as the ticket template and points the config at it.
func WithTemplateFile(raw []byte) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "basetik.bin")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			b.t.Fatalf("write template: %v", err)
		}
		b.cfg.Ticket.TemplatePath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SDRoot)
}
