package pack_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"soundpack/internal/hashing"
	"soundpack/internal/pack"
	"soundpack/internal/testsupport"
)

func TestVerifyDetectsDamage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	asm, _ := newAssembler(t, cfg)
	src := seedSource(t, cfg)
	res, err := asm.Assemble(context.Background(), pack.Request{SourceDir: src, Title: "Drum Kit"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	h := hashing.Default()

	problems, err := pack.Verify(context.Background(), h, res.Dir, cfg.Packaging.ManifestName)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("fresh package reported problems: %+v", problems)
	}

	if err := os.WriteFile(filepath.Join(res.Dir, "hat.wav"), []byte("RIFFtampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(res.Dir, "snare_hit.wav")); err != nil {
		t.Fatal(err)
	}
	problems, err = pack.Verify(context.Background(), h, res.Dir, cfg.Packaging.ManifestName)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	kinds := map[string]string{}
	for _, p := range problems {
		kinds[p.File+":"+p.Kind] = p.Detail
	}
	for _, want := range []string{"hat.wav:" + pack.ProblemHash, "hat.wav:" + pack.ProblemSize, "snare_hit.wav:" + pack.ProblemMissing} {
		if _, ok := kinds[want]; !ok {
			t.Fatalf("missing problem %s in %+v", want, problems)
		}
	}
}
