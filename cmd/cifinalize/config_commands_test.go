package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "SD root")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse to overwrite")
	}
}

func TestConfigValidateReportsMissingSDRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(env.cfg.Paths.SDRoot); err != nil {
		t.Fatal(err)
	}

	out, _, err := env.run(t, "config", "validate")
	if err == nil {
		t.Fatal("expected validate to fail without an SD root")
	}
	requireContains(t, out, "does not exist")
}
