package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"soundpack/internal/catalog"
	"soundpack/internal/pack"
	"soundpack/internal/services"
	"soundpack/internal/testsupport"
)

func TestBuildCommandCreatesPackage(t *testing.T) {
	env := setupCLITestEnv(t)
	src := seedDrumKit(t, env)

	out, _, err := runCLI(t, env, []string{"build", src, "--creator", "Ada"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, out, "Package drum-kit created")
	requireContains(t, out, "Samples: 2 kept of 3 discovered")
	requireContains(t, out, "Copied: 2, already present: 0")
	requireContains(t, out, "dropped silent.wav")

	pkg, err := pack.ReadManifest(filepath.Join(env.packagesDir, "drum-kit", "pack.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if pkg.Metadata.Title != "Drum Kit" || pkg.Metadata.Creator != "Ada" || pkg.Metadata.NumSamples != 2 {
		t.Fatalf("unexpected metadata: %+v", pkg.Metadata)
	}

	cat, err := catalog.Load(filepath.Join(env.packagesDir, "packs.json"))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(cat) != 1 || cat[0].ID != "drum-kit" {
		t.Fatalf("unexpected catalog: %+v", cat)
	}
}

func TestBuildCommandSkipsExistingPackage(t *testing.T) {
	env := setupCLITestEnv(t)
	src := seedDrumKit(t, env)

	if _, _, err := runCLI(t, env, []string{"build", src}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	before := testsupport.Snapshot(t, env.packagesDir)

	out, _, err := runCLI(t, env, []string{"build", src})
	if err != nil {
		t.Fatalf("second build should succeed, got %v", err)
	}
	requireContains(t, out, "already exists")

	after := testsupport.Snapshot(t, env.packagesDir)
	for name, content := range before {
		if after[name] != content {
			t.Fatalf("%s changed on skipped build", name)
		}
	}
}

func TestBuildCommandOverwriteAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	src := seedDrumKit(t, env)

	if _, _, err := runCLI(t, env, []string{"build", src}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	testsupport.WriteWAV(t, filepath.Join(src, "hat.wav"), "hat")

	out, _, err := runCLI(t, env, []string{"build", src, "--overwrite", "--json"})
	if err != nil {
		t.Fatalf("overwrite build: %v", err)
	}
	var summary buildOutput
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if summary.Status != "updated" || summary.Kept != 3 || summary.Copied != 1 || summary.AlreadyPresent != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Dropped) != 1 || summary.Dropped[0].File != "silent.wav" {
		t.Fatalf("unexpected dropped list: %+v", summary.Dropped)
	}
}

func TestBuildCommandDryRunWritesNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	src := seedDrumKit(t, env)

	out, _, err := runCLI(t, env, []string{"build", src, "--title", "Big Drums", "--dry-run"})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "Dry run for package big-drums")
	requireContains(t, out, `"title": "Big Drums"`)
	if _, err := os.Stat(filepath.Join(env.packagesDir, "big-drums")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created the package directory: %v", err)
	}
}

func TestBuildCommandMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, []string{"build", filepath.Join(env.baseDir, "nope")})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildCommandRequiresPath(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, []string{"build"}); err == nil {
		t.Fatal("expected an argument error")
	}
}
