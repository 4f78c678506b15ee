package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyOutcome reports what EnsurePresent did for one destination.
type CopyOutcome int

const (
	// Failed means the destination could not be produced.
	Failed CopyOutcome = iota
	// Copied means the destination did not exist and now holds the source bytes.
	Copied
	// AlreadyPresent means a same-named destination existed and was left untouched.
	AlreadyPresent
)

func (o CopyOutcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case AlreadyPresent:
		return "already_present"
	default:
		return "failed"
	}
}

// EnsurePresent copies src to dst unless something already exists at dst.
// It never overwrites: an existing destination yields AlreadyPresent even
// when its contents differ from src.
func EnsurePresent(src, dst string) (CopyOutcome, error) {
	if _, err := os.Lstat(dst); err == nil {
		return AlreadyPresent, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Failed, fmt.Errorf("stat destination: %w", err)
	}
	if err := copyVerified(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return AlreadyPresent, nil
		}
		return Failed, err
	}
	return Copied, nil
}

// copyVerified streams src into a new file at dst, comparing sizes and
// SHA-256 sums of both sides. dst is removed on any failure after creation.
func copyVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	created := true
	defer func() {
		_ = out.Close()
		if !created {
			_ = os.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		created = false
		return err
	}
	if err := out.Close(); err != nil {
		created = false
		return err
	}

	if written != srcSize {
		created = false
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		created = false
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers see either the old file or the complete new one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
