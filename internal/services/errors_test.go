package services_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundpack/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "artifact", "build", "missing sample", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"artifact", "build", "missing sample"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapIOClassifiesFilesystemErrors(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing.wav"))
	notFound := services.WrapIO("asset", "stat", "", statErr)
	if !errors.Is(notFound, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", notFound)
	}
	if !errors.Is(notFound, fs.ErrNotExist) {
		t.Fatalf("expected underlying fs error to be retained, got %v", notFound)
	}

	denied := services.WrapIO("pack", "mkdir", "", fmt.Errorf("mkdir: %w", fs.ErrPermission))
	if !errors.Is(denied, services.ErrPermission) {
		t.Fatalf("expected permission marker, got %v", denied)
	}

	other := services.WrapIO("pack", "write", "", errors.New("disk full"))
	if !errors.Is(other, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", other)
	}
}

func TestKindLabels(t *testing.T) {
	cases := map[string]error{
		"not_found":         services.Wrap(services.ErrNotFound, "pack", "", "", nil),
		"permission_denied": services.Wrap(services.ErrPermission, "pack", "", "", nil),
		"validation":        services.Wrap(services.ErrValidation, "artifact", "", "", nil),
		"io":                errors.New("plain"),
	}
	for want, err := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
	if services.Kind(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
}
