package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"soundpack/internal/catalog"
	"soundpack/internal/services"
)

func writeManifest(t *testing.T, root, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, dir, "pack.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRebuildSortsByTitleAndWritesFile(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "zebra", `{"metadata": {"title": "Zebra", "id": "zebra", "creator": "A"}, "samples": [{}, {}]}`)
	writeManifest(t, root, "alpha", `{"metadata": {"title": "Alpha", "id": "alpha", "creator": "B"}, "samples": [{}]}`)
	// flat layout written by older tooling
	writeManifest(t, root, "mid", `{"title": "Mid", "id": "mid", "creator": "C", "samples": []}`)
	if err := os.MkdirAll(filepath.Join(root, ".trash"), 0o755); err != nil {
		t.Fatal(err)
	}

	agg := catalog.New(root, "pack.json", "packs.json", nil)
	cat, err := agg.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if len(cat) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(cat))
	}
	want := []catalog.Summary{
		{Title: "Alpha", ID: "alpha", Creator: "B", NumSamples: 1},
		{Title: "Mid", ID: "mid", Creator: "C", NumSamples: 0},
		{Title: "Zebra", ID: "zebra", Creator: "A", NumSamples: 2},
	}
	for i := range want {
		if cat[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, cat[i], want[i])
		}
	}

	loaded, err := agg.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 3 || loaded[0].ID != "alpha" {
		t.Fatalf("unexpected loaded catalog %+v", loaded)
	}
}

func TestRebuildFailsOnMissingOrCorruptManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "good", `{"metadata": {"title": "Good", "id": "good", "creator": "A"}, "samples": []}`)
	agg := catalog.New(root, "pack.json", "packs.json", nil)
	if _, err := agg.Rebuild(context.Background()); err != nil {
		t.Fatalf("initial Rebuild: %v", err)
	}
	before, err := os.ReadFile(agg.Path())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(root, "orphan"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := agg.Rebuild(context.Background()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing manifest, got %v", err)
	}

	writeManifest(t, root, "orphan", `{"metadata": `)
	if _, err := agg.Rebuild(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for corrupt manifest, got %v", err)
	}

	after, err := os.ReadFile(agg.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("expected catalog file untouched after failed rebuild")
	}
}

func TestRebuildEmptyRootWritesEmptyArray(t *testing.T) {
	root := t.TempDir()
	agg := catalog.New(root, "pack.json", "packs.json", nil)
	cat, err := agg.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if len(cat) != 0 {
		t.Fatalf("expected empty catalog, got %+v", cat)
	}
	data, err := os.ReadFile(agg.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", data)
	}
}

func TestScanDedupesByID(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "drums", `{"metadata": {"title": "Drums", "id": "drums", "creator": "A"}, "samples": [{}]}`)
	writeManifest(t, root, "drums-copy", `{"metadata": {"title": "Drums", "id": "drums", "creator": "A"}, "samples": []}`)

	entries, err := catalog.New(root, "pack.json", "packs.json", nil).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry after dedupe, got %d", len(entries))
	}
	if filepath.Base(entries[0].Dir) != "drums" {
		t.Fatalf("expected directory matching the id to win, got %s", entries[0].Dir)
	}
}

func TestFindUnknownPackage(t *testing.T) {
	root := t.TempDir()
	_, err := catalog.New(root, "pack.json", "packs.json", nil).Find(context.Background(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
