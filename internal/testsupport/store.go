package testsupport

import (
	"context"
	"testing"

	"cifinalize/internal/config"
	"cifinalize/internal/platform"
	"cifinalize/internal/platform/consolestore"
)

// MustOpenStore opens a consolestore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *consolestore.Store {
	t.Helper()

	store, err := consolestore.OpenConfig(cfg)
	if err != nil {
		t.Fatalf("consolestore.OpenConfig: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddTitles marks ids as installed on media in store.
func AddTitles(t testing.TB, store *consolestore.Store, media platform.Media, ids ...uint64) {
	t.Helper()

	for _, id := range ids {
		if err := store.AddTitle(context.Background(), media, id); err != nil {
			t.Fatalf("store.AddTitle: %v", err)
		}
	}
}
