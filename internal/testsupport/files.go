package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cifinalize/internal/config"
	"cifinalize/internal/pendingdb"
)

// WritePending writes a pending database at the configured location and
// returns its path.
func WritePending(t testing.TB, cfg *config.Config, version uint32, entries ...pendingdb.Entry) string {
	t.Helper()

	path := cfg.PendingPath()
	if err := pendingdb.WriteFile(path, version, entries); err != nil {
		t.Fatalf("write pending database: %v", err)
	}
	return path
}

// WriteRaw writes data at path, creating parent directories.
func WriteRaw(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Exists reports whether path exists.
func Exists(t testing.TB, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}

// Seed returns a deterministic 16-byte seed starting at first.
func Seed(first byte) [pendingdb.SeedSize]byte {
	var seed [pendingdb.SeedSize]byte
	for i := range seed {
		seed[i] = first + byte(i)
	}
	return seed
}
