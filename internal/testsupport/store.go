package testsupport

import (
	"testing"

	"soundpack/internal/assetindex"
	"soundpack/internal/config"
)

// MustOpenIndex opens the asset index configured for cfg and closes it when
// the test finishes.
func MustOpenIndex(t testing.TB, cfg *config.Config) *assetindex.Store {
	t.Helper()

	store, err := assetindex.Open(cfg.Paths.IndexPath)
	if err != nil {
		t.Fatalf("open asset index: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
