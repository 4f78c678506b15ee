package hashing_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpack/internal/hashing"
	"soundpack/internal/services"
)

func TestHashBytesKnownVectors(t *testing.T) {
	h := hashing.Default()
	cases := map[string]string{
		"":    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"abc": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	for input, want := range cases {
		if got := h.HashBytes([]byte(input), false); got != want {
			t.Fatalf("HashBytes(%q) = %s, want %s", input, got, want)
		}
		if got := h.HashText(input, false); got != want {
			t.Fatalf("HashText(%q) = %s, want %s", input, got, want)
		}
	}
	if got := h.HashText("abc", true); got != "ba7816bf8f01cfea" {
		t.Fatalf("unexpected short hash %q", got)
	}
}

func TestHashBytesSpansBlocks(t *testing.T) {
	h := hashing.Default()
	data := bytes.Repeat([]byte("x"), 200000)
	want := "91e3faafd322bcdf160f3f0ce886acb092b9b9e2a1e8526b40f21a8898a8700b"
	if got := h.HashBytes(data, false); got != want {
		t.Fatalf("HashBytes over several blocks = %s, want %s", got, want)
	}
	got, err := h.HashReader(bytes.NewReader(data), false)
	if err != nil {
		t.Fatalf("HashReader: %v", err)
	}
	if got != want {
		t.Fatalf("HashReader = %s, want %s", got, want)
	}
}

func TestHashFileMatchesBytesAndFailsWhenMissing(t *testing.T) {
	h := hashing.Default()
	dir := t.TempDir()
	path := filepath.Join(dir, "kick.wav")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	sum, err := h.HashFile(path, false)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if sum != h.HashBytes([]byte("abc"), false) {
		t.Fatalf("file hash differs from byte hash: %s", sum)
	}

	_, err = h.HashFile(filepath.Join(dir, "missing.wav"), false)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	if _, err := h.HashFile(dir, false); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for directory, got %v", err)
	}
}

func TestHashStructuredMatchesPythonOutput(t *testing.T) {
	h := hashing.Default()
	sum, err := h.HashStructured([]any{"a", "b"}, false)
	if err != nil {
		t.Fatalf("HashStructured: %v", err)
	}
	if sum != "3554d2b8a1e34099053865de8576d1460b807430ec8c6b85315c9607ba93d308" {
		t.Fatalf("unexpected list hash %s", sum)
	}

	params := map[string]any{
		"xFeature":     "MFCC_0",
		"scaleMult":    0.01,
		"posAxisScale": []int{1, 1, 1},
		"useHSV":       false,
	}
	sum, err = h.HashStructured(params, false)
	if err != nil {
		t.Fatalf("HashStructured: %v", err)
	}
	if sum != "5a7f16be702f02e6bb8f5f6c5758ae3fe4cf812f519c8ab647c92a6273220e9c" {
		t.Fatalf("unexpected mapping hash %s", sum)
	}
}

func TestHashStructuredOrderSemantics(t *testing.T) {
	h := hashing.Default()
	first := map[string]any{"b": 2, "a": map[string]any{"y": 1, "x": []any{1, 2}}}
	second := map[string]any{"a": map[string]any{"x": []any{1, 2}, "y": 1}, "b": 2}
	one, err := h.HashStructured(first, false)
	if err != nil {
		t.Fatalf("HashStructured: %v", err)
	}
	two, err := h.HashStructured(second, false)
	if err != nil {
		t.Fatalf("HashStructured: %v", err)
	}
	if one != two {
		t.Fatalf("expected equal mappings to hash equally: %s != %s", one, two)
	}

	forward, _ := h.HashStructured([]any{"a", "b", "c"}, false)
	reversed, _ := h.HashStructured([]any{"c", "b", "a"}, false)
	same, _ := h.HashStructured([]any{"a", "b", "c"}, false)
	if forward == reversed {
		t.Fatal("expected sequence order to change the hash")
	}
	if forward != same {
		t.Fatal("expected identical sequences to hash identically")
	}
}

func TestHashStructuredRejectsNonFinite(t *testing.T) {
	zero := 0.0
	_, err := hashing.Default().HashStructured(map[string]any{"x": 1 / zero}, false)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBlake3Algorithm(t *testing.T) {
	h, err := hashing.New("BLAKE3", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.Algorithm() != hashing.BLAKE3 {
		t.Fatalf("unexpected algorithm %q", h.Algorithm())
	}
	want := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := h.HashBytes(nil, false); got != want {
		t.Fatalf("blake3 empty hash = %s, want %s", got, want)
	}
	if got := h.HashBytes(nil, true); got != want[:hashing.ShortLength] {
		t.Fatalf("unexpected short blake3 hash %s", got)
	}
	if _, err := hashing.New("md5", 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestShort(t *testing.T) {
	if got := hashing.Short("abcdef", 4); got != "abcd" {
		t.Fatalf("Short = %q", got)
	}
	if got := hashing.Short("abc", 16); got != "abc" {
		t.Fatalf("Short on short input = %q", got)
	}
	h, _ := hashing.New("sha256", 10)
	if got := h.HashText("abc", true); len(got) != 10 || !strings.HasPrefix("ba7816bf8f01cfea", got) {
		t.Fatalf("unexpected configured short hash %q", got)
	}
}
