package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpack/internal/artifact"
	"soundpack/internal/resource"
	"soundpack/internal/services"
	"soundpack/internal/testsupport"
	"soundpack/internal/upload"
)

type fakeUploader struct {
	files []string
}

func (f *fakeUploader) PinFile(_ context.Context, path, _ string) (upload.Pin, error) {
	f.files = append(f.files, filepath.Base(path))
	return upload.Pin{CID: "bafyfake", URL: "https://gateway.test/ipfs/bafyfake"}, nil
}

func (f *fakeUploader) PinJSON(context.Context, any, string) (upload.Pin, error) {
	return upload.Pin{}, errors.New("not used")
}

func TestArtifactCommandWritesRecord(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "one_shot.wav")
	testsupport.WriteWAV(t, sample, "grain")

	out, _, err := runCLI(t, env, []string{"artifact", sample, "--description", "texture"})
	if err != nil {
		t.Fatalf("artifact: %v", err)
	}
	requireContains(t, out, `Artifact "One Shot" written to `)

	copied := filepath.Join(env.artifactsDir, "one-shot", "one_shot.wav")
	if _, err := os.Stat(copied); err != nil {
		t.Fatalf("sample not copied into resources: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(env.dataDir, "metadata", "*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one record, got %v (%v)", matches, err)
	}
	record, err := artifact.ReadRecord(matches[0])
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if record.Creator.Name != "Unknown Creator" || record.Description != "texture" {
		t.Fatalf("unexpected record header: %+v", record)
	}
	if len(record.Resources) != 1 || record.Resources[0].URI != "Artifacts/one-shot/one_shot" {
		t.Fatalf("unexpected resources: %+v", record.Resources)
	}
	if filepath.Base(matches[0]) != record.Hash+".json" {
		t.Fatalf("record %s is not keyed by hash %s", matches[0], record.Hash)
	}
}

func TestArtifactCommandParametersChangeHash(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "pad.wav")
	testsupport.WriteWAV(t, sample, "pad")
	params := filepath.Join(env.baseDir, "params.yaml")
	if err := os.WriteFile(params, []byte("hopSize: 4096\n"), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}

	base := filepath.Join(env.baseDir, "base.json")
	tuned := filepath.Join(env.baseDir, "tuned.json")
	if _, _, err := runCLI(t, env, []string{"artifact", sample, "-o", base}); err != nil {
		t.Fatalf("artifact: %v", err)
	}
	if _, _, err := runCLI(t, env, []string{"artifact", sample, "-o", tuned, "--params", params}); err != nil {
		t.Fatalf("artifact with params: %v", err)
	}
	a, err := artifact.ReadRecord(base)
	if err != nil {
		t.Fatalf("read base: %v", err)
	}
	b, err := artifact.ReadRecord(tuned)
	if err != nil {
		t.Fatalf("read tuned: %v", err)
	}
	if a.Hash == b.Hash {
		t.Fatal("parameter overrides should change the composite hash")
	}
	if len(b.Parameters) != len(artifact.DefaultParameters()) {
		t.Fatalf("overrides should be merged onto the defaults: %v", b.Parameters)
	}
	if got := fmt.Sprint(b.Parameters["hopSize"]); got != "4096" {
		t.Fatalf("hopSize = %s, want 4096", got)
	}
}

func TestArtifactCommandUploadUsesWebResource(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "pluck.wav")
	testsupport.WriteWAV(t, sample, "pluck")
	up := &fakeUploader{}

	out, _, err := runCLI(t, env, []string{"artifact", sample, "--upload", "--json"}, withUploader(up))
	if err != nil {
		t.Fatalf("artifact --upload: %v", err)
	}
	requireContains(t, out, "https://gateway.test/ipfs/bafyfake")
	if len(up.files) != 1 || up.files[0] != "pluck.wav" {
		t.Fatalf("unexpected uploads: %v", up.files)
	}
	if _, err := os.Stat(filepath.Join(env.artifactsDir, "pluck")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("upload should not copy into resources: %v", err)
	}
}

func TestArtifactCommandUploadDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "pluck.wav")
	testsupport.WriteWAV(t, sample, "pluck")

	if _, _, err := runCLI(t, env, []string{"artifact", sample, "--upload"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestArtifactCommandThumbnailSharesFolder(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "pluck.wav")
	thumb := filepath.Join(env.baseDir, "src", "cover.png")
	testsupport.WriteWAV(t, sample, "pluck")
	testsupport.WriteFile(t, thumb, 64)

	out, _, err := runCLI(t, env, []string{"artifact", sample, "--thumbnail", thumb})
	if err != nil {
		t.Fatalf("artifact: %v", err)
	}
	requireContains(t, out, string(resource.CategoryThumbnail))
	if _, err := os.Stat(filepath.Join(env.artifactsDir, "pluck", "cover.png")); err != nil {
		t.Fatalf("thumbnail not placed next to the sample: %v", err)
	}
}

func TestArtifactResourcesStayOutOfPackagesRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "one_shot.wav")
	testsupport.WriteWAV(t, sample, "grain")

	if _, _, err := runCLI(t, env, []string{"artifact", sample}); err != nil {
		t.Fatalf("artifact: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.packagesDir, "one-shot")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("artifact folder created under the packages root: %v", err)
	}

	src := seedDrumKit(t, env)
	if _, _, err := runCLI(t, env, []string{"build", src}); err != nil {
		t.Fatalf("build after artifact: %v", err)
	}
	out, _, err := runCLI(t, env, []string{"list"})
	if err != nil {
		t.Fatalf("list after artifact: %v", err)
	}
	requireContains(t, out, "drum-kit")
	if strings.Contains(out, "one-shot") {
		t.Fatalf("artifact folder listed as a package:\n%s", out)
	}
}

func TestArtifactCommandInPlaceRecordsLocalResource(t *testing.T) {
	env := setupCLITestEnv(t)
	sample := filepath.Join(env.baseDir, "src", "drone.wav")
	testsupport.WriteWAV(t, sample, "drone")

	out, _, err := runCLI(t, env, []string{"artifact", sample, "--in-place", "--json"})
	if err != nil {
		t.Fatalf("artifact --in-place: %v", err)
	}
	var record artifact.Record
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("decode record: %v\n%s", err, out)
	}
	if len(record.Resources) != 1 {
		t.Fatalf("unexpected resources: %+v", record.Resources)
	}
	res := record.Resources[0]
	if res.Location != resource.LocationLocal || res.URI != filepath.ToSlash(sample) {
		t.Fatalf("expected local resource at %s, got %+v", sample, res)
	}
	if _, err := os.Stat(filepath.Join(env.artifactsDir, "drone")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("in-place artifact copied into resources: %v", err)
	}

	if _, _, err := runCLI(t, env, []string{"artifact", sample, "--in-place", "--upload"}, withUploader(&fakeUploader{})); err == nil {
		t.Fatal("expected --in-place and --upload to conflict")
	}
}
