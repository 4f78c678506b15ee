// Package export writes a package directory to a single compressed tar
// archive for distribution.
package export

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"soundpack/internal/hashing"
	"soundpack/internal/logging"
	"soundpack/internal/pack"
	"soundpack/internal/services"
	"soundpack/internal/textutil"
)

// Result describes a written archive.
type Result struct {
	Path  string
	Files int
	Bytes int64
}

// Entry is one file stored in an archive.
type Entry struct {
	Name string
	Size int64
}

// Exporter writes archives into one directory.
type Exporter struct {
	dir          string
	manifestName string
	shortLength  int
	logger       *slog.Logger
}

// New constructs an Exporter writing into dir.
func New(dir, manifestName string, shortLength int, logger *slog.Logger) *Exporter {
	if shortLength <= 0 {
		shortLength = hashing.ShortLength
	}
	return &Exporter{
		dir:          dir,
		manifestName: manifestName,
		shortLength:  shortLength,
		logger:       logging.NewComponentLogger(logger, "export"),
	}
}

// ArchiveName returns {id}-{short package hash}{ext}.
func (e *Exporter) ArchiveName(pkg pack.Package, c Compression) string {
	name := textutil.SanitizeFileName(pkg.Metadata.ID)
	if pkg.Metadata.Hash != "" {
		name += "-" + hashing.Short(pkg.Metadata.Hash, e.shortLength)
	}
	return name + c.Extension()
}

// Export archives the manifest in pkgDir and every sample it lists. Files
// in the directory that the manifest does not mention are left out. The
// archive is written to a temporary file and renamed into place.
func (e *Exporter) Export(ctx context.Context, pkgDir string, c Compression) (Result, error) {
	manifestPath := filepath.Join(pkgDir, e.manifestName)
	pkg, err := pack.ReadManifest(manifestPath)
	if err != nil {
		return Result{}, err
	}
	if pkg.Metadata.ID == "" {
		pkg.Metadata.ID = filepath.Base(pkgDir)
	}

	names := make([]string, 0, len(pkg.Samples)+1)
	names = append(names, e.manifestName)
	for _, sample := range pkg.Samples {
		names = append(names, sample.File)
	}
	sort.Strings(names[1:])

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Result{}, services.WrapIO("export", "prepare", e.dir, err)
	}
	target := filepath.Join(e.dir, e.ArchiveName(pkg, c))
	tmp, err := os.CreateTemp(e.dir, ".export-*")
	if err != nil {
		return Result{}, services.WrapIO("export", "create temp", e.dir, err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	total, err := writeArchive(tmp, pkgDir, pkg.Metadata.ID, names, c)
	if err != nil {
		return Result{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Result{}, services.WrapIO("export", "sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, services.WrapIO("export", "close", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return Result{}, services.WrapIO("export", "rename", target, err)
	}
	success = true

	e.logger.InfoContext(ctx, "package exported",
		logging.String(logging.FieldPackageID, pkg.Metadata.ID),
		logging.String(logging.FieldPath, target),
		logging.Int("files", len(names)),
		logging.Int64("bytes", total),
		logging.String("compression", string(c)),
		logging.String(logging.FieldEventType, "package_exported"),
	)
	return Result{Path: target, Files: len(names), Bytes: total}, nil
}

func writeArchive(w io.Writer, pkgDir, prefix string, names []string, c Compression) (int64, error) {
	cw, err := c.writer(w)
	if err != nil {
		return 0, err
	}
	tw := tar.NewWriter(cw)
	var total int64
	for _, name := range names {
		n, err := addFile(tw, filepath.Join(pkgDir, name), prefix+"/"+name)
		if err != nil {
			_ = tw.Close()
			_ = cw.Close()
			return 0, err
		}
		total += n
	}
	if err := tw.Close(); err != nil {
		_ = cw.Close()
		return 0, fmt.Errorf("export: close tar: %w", err)
	}
	if err := cw.Close(); err != nil {
		return 0, fmt.Errorf("export: close %s stream: %w", c, err)
	}
	return total, nil
}

func addFile(tw *tar.Writer, path, name string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, services.WrapIO("export", "open", path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return 0, services.WrapIO("export", "stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, services.Wrap(services.ErrValidation, "export", "add", path+" is not a regular file", nil)
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     info.Size(),
		ModTime:  info.ModTime().UTC().Truncate(time.Second),
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, fmt.Errorf("export: write header %s: %w", name, err)
	}
	n, err := io.Copy(tw, file)
	if err != nil {
		return n, services.WrapIO("export", "copy", path, err)
	}
	return n, nil
}

// List reads the entries of an archive written by Export.
func List(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.WrapIO("export", "list", path, err)
	}
	defer file.Close()

	r, closeReader, err := compressionForPath(path).reader(file)
	if err != nil {
		return nil, err
	}
	defer closeReader()

	tr := tar.NewReader(r)
	var entries []Entry
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "export", "list", path, err)
		}
		entries = append(entries, Entry{Name: hdr.Name, Size: hdr.Size})
	}
}
