package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpack/internal/artifact"
	"soundpack/internal/hashing"
	"soundpack/internal/resource"
	"soundpack/internal/services"
)

const (
	defaultParamsHash = "c831581a7bade8d4115abff8624b0f6d64a4f862cc8cf829c1dffbab4eb9d186"
	zeroSampleHash    = "0000000000000000000000000000000000000000000000000000000000000000"
	zeroComposite     = "ada12eabc48b3b3790e5f953c8eddef11a3c00b2bfe358572df665a0ea164c0d"
)

func sampleResource(hash string) resource.Data {
	return resource.Data{
		Type:     "audio/wav",
		Category: resource.CategorySample,
		Location: resource.LocationPackage,
		URI:      "SamplePacks/grains/grain_cloud",
		Hash:     hash,
		Bytes:    42,
	}
}

func TestDefaultParametersHash(t *testing.T) {
	sum, err := hashing.Default().HashStructured(map[string]any(artifact.DefaultParameters()), false)
	if err != nil {
		t.Fatalf("HashStructured: %v", err)
	}
	if sum != defaultParamsHash {
		t.Fatalf("default parameters hash = %s", sum)
	}
}

func TestDefaultParametersFresh(t *testing.T) {
	a := artifact.DefaultParameters()
	a["windowSize"] = 1
	a["posAxisScale"].([]any)[0] = 9
	b := artifact.DefaultParameters()
	if b["windowSize"] != 8192 || b["posAxisScale"].([]any)[0] != 1 {
		t.Fatalf("defaults shared state: %v", b)
	}
}

func TestCompositeHash(t *testing.T) {
	sum, err := artifact.CompositeHash(hashing.Default(), zeroSampleHash, artifact.DefaultParameters())
	if err != nil {
		t.Fatalf("CompositeHash: %v", err)
	}
	if sum != zeroComposite {
		t.Fatalf("composite = %s", sum)
	}
}

func TestBuildWritesRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metadata")
	builder := artifact.NewBuilder(nil, dir, artifact.Creator{Name: "Unknown Creator"}, nil)
	res, err := builder.Build(context.Background(), artifact.Request{
		SourcePath:  "/tmp/grain_cloud.wav",
		Description: "test cloud",
		Resources:   []resource.Data{sampleResource(zeroSampleHash)},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Record.Hash != zeroComposite {
		t.Fatalf("hash = %s", res.Record.Hash)
	}
	if res.Path != filepath.Join(dir, zeroComposite+".json") {
		t.Fatalf("path = %s", res.Path)
	}
	if res.Record.Title != "Grain Cloud" || res.Record.Creator.Name != "Unknown Creator" {
		t.Fatalf("unexpected record %+v", res.Record)
	}
	loaded, err := artifact.ReadRecord(res.Path)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if loaded.Hash != zeroComposite || len(loaded.Resources) != 1 {
		t.Fatalf("loaded %+v", loaded)
	}
	if seqs, ok := loaded.Session["sequences"].([]any); !ok || len(seqs) != 0 {
		t.Fatalf("session = %v", loaded.Session)
	}
	// reloaded parameters hash the same way
	again, err := artifact.CompositeHash(hashing.Default(), zeroSampleHash, loaded.Parameters)
	if err != nil || again != zeroComposite {
		t.Fatalf("reloaded composite = %s, %v", again, err)
	}
}

func TestBuildIgnoresMetadataForHash(t *testing.T) {
	builder := artifact.NewBuilder(nil, t.TempDir(), artifact.Creator{}, nil)
	a, err := builder.Build(context.Background(), artifact.Request{Title: "One", Resources: []resource.Data{sampleResource(zeroSampleHash)}})
	if err != nil {
		t.Fatal(err)
	}
	web := sampleResource(zeroSampleHash)
	web.Location = resource.LocationWeb
	web.URI = "https://ipfs.io/ipfs/bafy"
	b, err := builder.Build(context.Background(), artifact.Request{
		Title:     "Two",
		Creator:   artifact.Creator{Name: "Someone"},
		Resources: []resource.Data{web, {Category: resource.CategoryThumbnail, Hash: "ff"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Record.Hash != b.Record.Hash {
		t.Fatalf("hash depends on metadata: %s vs %s", a.Record.Hash, b.Record.Hash)
	}
}

func TestBuildWithoutSampleTouchesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metadata")
	builder := artifact.NewBuilder(nil, dir, artifact.Creator{}, nil)
	_, err := builder.Build(context.Background(), artifact.Request{
		Title:     "No Sample",
		Resources: []resource.Data{{Category: resource.CategoryThumbnail, Hash: zeroSampleHash}},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("metadata dir created: %v", err)
	}
}

func TestBuildRejectsTwoSamples(t *testing.T) {
	builder := artifact.NewBuilder(nil, t.TempDir(), artifact.Creator{}, nil)
	_, err := builder.Build(context.Background(), artifact.Request{
		Resources: []resource.Data{sampleResource("aa"), sampleResource("bb")},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBuildHonoursOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "custom", "cloud.json")
	builder := artifact.NewBuilder(nil, t.TempDir(), artifact.Creator{}, nil)
	res, err := builder.Build(context.Background(), artifact.Request{
		Title:     "Cloud",
		Resources: []resource.Data{sampleResource(zeroSampleHash)},
		Output:    out,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Path != out {
		t.Fatalf("path = %s", res.Path)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n    \"title\": \"Cloud\",") {
		t.Fatalf("unexpected layout:\n%s", data)
	}
}

func TestLoadParametersFormats(t *testing.T) {
	files := map[string]string{
		"params.jsonc": `{
			// stock settings
			"xFeature": "MFCC_0", "yFeature": "MFCC_1", "zFeature": "MFCC_2",
			"rFeature": "MFCC_3", "gFeature": "MFCC_4", "bFeature": "MFCC_5",
			"scaleFeature": "RMS", "windowSize": 8192, "hopSize": 8192,
			"scaleMult": 0.01, "scaleExp": 0.1, "useHSV": false,
			"posAxisScale": [1, 1, 1],
		}`,
		"params.yaml": `xFeature: MFCC_0
yFeature: MFCC_1
zFeature: MFCC_2
rFeature: MFCC_3
gFeature: MFCC_4
bFeature: MFCC_5
scaleFeature: RMS
windowSize: 8192
hopSize: 8192
scaleMult: 0.01
scaleExp: 0.1
useHSV: false
posAxisScale: [1, 1, 1]
`,
		"params.toml": `xFeature = "MFCC_0"
yFeature = "MFCC_1"
zFeature = "MFCC_2"
rFeature = "MFCC_3"
gFeature = "MFCC_4"
bFeature = "MFCC_5"
scaleFeature = "RMS"
windowSize = 8192
hopSize = 8192
scaleMult = 0.01
scaleExp = 0.1
useHSV = false
posAxisScale = [1, 1, 1]
`,
	}
	dir := t.TempDir()
	h := hashing.Default()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		params, err := artifact.LoadParameters(path)
		if err != nil {
			t.Fatalf("%s: LoadParameters: %v", name, err)
		}
		sum, err := h.HashStructured(map[string]any(params), false)
		if err != nil {
			t.Fatalf("%s: HashStructured: %v", name, err)
		}
		if sum != defaultParamsHash {
			t.Fatalf("%s: hash %s differs from defaults", name, sum)
		}
	}
}

func TestLoadParametersErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := artifact.LoadParameters(filepath.Join(dir, "missing.json")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	bad := filepath.Join(dir, "bad.ini")
	if err := os.WriteFile(bad, []byte("a=1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := artifact.LoadParameters(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMergeParameters(t *testing.T) {
	base := artifact.DefaultParameters()
	merged := base.Merge(artifact.Parameters{"windowSize": 4096})
	if merged["windowSize"] != 4096 || base["windowSize"] != 8192 {
		t.Fatalf("merge mutated or missed: %v / %v", merged["windowSize"], base["windowSize"])
	}
}
