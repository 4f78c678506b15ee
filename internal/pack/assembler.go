package pack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundpack/internal/asset"
	"soundpack/internal/catalog"
	"soundpack/internal/fileutil"
	"soundpack/internal/hashing"
	"soundpack/internal/logging"
	"soundpack/internal/services"
)

// Status describes what Assemble did with the target package directory.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	// StatusSkipped means the package already existed and overwrite was off.
	StatusSkipped Status = "skipped"
	// StatusPlanned is returned by dry runs; nothing was written.
	StatusPlanned Status = "planned"
)

// Request describes one package build.
type Request struct {
	SourceDir   string
	Title       string
	Creator     string
	Description string
	Overwrite   bool
	DryRun      bool
}

// Dropped records a discovered file that was left out of the package.
type Dropped struct {
	File   string
	Reason string
}

// CopyReport is the ensure-present outcome for one sample.
type CopyReport struct {
	File    string
	Outcome fileutil.CopyOutcome
}

// Result summarizes an assembly run.
type Result struct {
	Status       Status
	ID           string
	Dir          string
	ManifestPath string
	Package      Package
	Discovered   int
	Kept         int
	Dropped      []Dropped
	Copies       []CopyReport
	Catalog      catalog.Catalog
	// Diff is the unified manifest diff produced by dry runs.
	Diff string
}

// Copied counts samples newly copied into the package directory.
func (r Result) Copied() int {
	return r.countCopies(fileutil.Copied)
}

// AlreadyPresent counts samples whose destination already existed.
func (r Result) AlreadyPresent() int {
	return r.countCopies(fileutil.AlreadyPresent)
}

func (r Result) countCopies(outcome fileutil.CopyOutcome) int {
	n := 0
	for _, c := range r.Copies {
		if c.Outcome == outcome {
			n++
		}
	}
	return n
}

// Indexer receives every package that was written successfully.
type Indexer interface {
	RecordPackage(ctx context.Context, pkg Package) error
}

// Assembler builds packages inside one Layout.
type Assembler struct {
	layout         Layout
	builder        *asset.Builder
	hasher         *hashing.Hasher
	catalog        *catalog.Aggregator
	index          Indexer
	defaultCreator string
	now            func() time.Time
	logger         *slog.Logger
}

// Option customizes an Assembler.
type Option func(*Assembler)

// WithIndexer records written packages in idx.
func WithIndexer(idx Indexer) Option {
	return func(a *Assembler) {
		a.index = idx
	}
}

// WithDefaultCreator sets the creator used when a request leaves it empty.
func WithDefaultCreator(name string) Option {
	return func(a *Assembler) {
		a.defaultCreator = name
	}
}

// WithClock overrides the manifest timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logging.NewComponentLogger(logger, "pack")
	}
}

// NewAssembler constructs an Assembler. The catalog aggregator is derived
// from the layout so every successful build refreshes it.
func NewAssembler(layout Layout, builder *asset.Builder, hasher *hashing.Hasher, opts ...Option) *Assembler {
	if hasher == nil {
		hasher = hashing.Default()
	}
	a := &Assembler{
		layout:  layout,
		builder: builder,
		hasher:  hasher,
		now:     time.Now,
		logger:  logging.NewComponentLogger(nil, "pack"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.catalog = catalog.New(layout.PackagesDir, layout.ManifestName, layout.CatalogName, a.logger)
	return a
}

// Catalog exposes the aggregator bound to this assembler's layout.
func (a *Assembler) Catalog() *catalog.Aggregator {
	return a.catalog
}

// Assemble builds or refreshes the package for req.SourceDir.
//
// An existing package with Overwrite unset yields StatusSkipped and leaves
// the filesystem untouched, even when the packages root is read-only.
// Missing sources are ErrNotFound and an unwritable packages root is
// ErrPermission. Both abort before any write.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Result, error) {
	sourceDir := strings.TrimSpace(req.SourceDir)
	if sourceDir == "" {
		return Result{}, services.Wrap(services.ErrValidation, "pack", "assemble", "source directory is required", nil)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle(sourceDir)
	}
	creator := strings.TrimSpace(req.Creator)
	if creator == "" {
		creator = a.defaultCreator
	}

	match, err := newMatcher(a.layout.Include)
	if err != nil {
		return Result{}, err
	}
	paths, err := discover(sourceDir, match)
	if err != nil {
		return Result{}, err
	}

	result := Result{Discovered: len(paths)}
	samples := make([]asset.Descriptor, 0, len(paths))
	for _, path := range paths {
		desc, err := a.builder.Build(ctx, path, title)
		if err != nil {
			return Result{}, err
		}
		if !asset.IsEligible(desc) {
			result.Dropped = append(result.Dropped, Dropped{File: desc.File, Reason: dropReason(desc)})
			continue
		}
		samples = append(samples, desc)
	}
	sortSamples(samples)
	result.Kept = len(samples)

	packageHash, err := PackageHash(a.hasher, samples)
	if err != nil {
		return Result{}, err
	}
	id := Slug(title)
	if id == "" {
		return Result{}, services.Wrap(services.ErrValidation, "pack", "assemble", fmt.Sprintf("title %q yields an empty package id", title), nil)
	}
	if a.layout.IDHashSuffix {
		id = id + "-" + a.hasher.Short(packageHash)
		for i := range samples {
			samples[i].Resource = asset.ResourceLocator(a.layout.ResourceRoot, id, samples[i].File)
		}
	}

	ctx = services.WithPackageID(ctx, id)
	logger := logging.WithContext(ctx, a.logger)

	result.ID = id
	result.Dir = a.layout.PackageDir(id)
	result.ManifestPath = a.layout.ManifestPath(id)
	result.Package = Package{
		Metadata: Metadata{
			Title:       title,
			ID:          id,
			Creator:     creator,
			Description: strings.TrimSpace(req.Description),
			Date:        a.now().Format(DateLayout),
			NumSamples:  len(samples),
			Hash:        packageHash,
		},
		Samples: samples,
	}
	for _, dropped := range result.Dropped {
		logger.DebugContext(ctx, "sample dropped",
			logging.String("file", dropped.File),
			logging.String("reason", dropped.Reason),
		)
	}

	if req.DryRun {
		return a.plan(result)
	}

	if !req.Overwrite {
		if info, err := os.Stat(result.Dir); err == nil && info.IsDir() {
			return a.skip(ctx, logger, result), nil
		}
	}

	if err := os.MkdirAll(a.layout.PackagesDir, 0o755); err != nil {
		return Result{}, services.WrapIO("pack", "assemble", a.layout.PackagesDir, err)
	}
	if err := checkWritable(a.layout.PackagesDir); err != nil {
		return Result{}, err
	}
	if a.layout.Lock {
		lock, err := acquireLock(a.layout.PackagesDir)
		if err != nil {
			return Result{}, err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.WarnContext(ctx, "release package lock failed", logging.Error(err))
			}
		}()
	}

	info, statErr := os.Stat(result.Dir)
	exists := statErr == nil
	switch {
	case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
		return Result{}, services.WrapIO("pack", "assemble", result.Dir, statErr)
	case exists && !info.IsDir():
		return Result{}, services.Wrap(services.ErrAlreadyExists, "pack", "assemble", result.Dir+" exists and is not a directory", nil)
	case exists && !req.Overwrite:
		// created by a concurrent run between the first check and the lock
		return a.skip(ctx, logger, result), nil
	case exists:
		result.Status = StatusUpdated
	default:
		if err := os.Mkdir(result.Dir, 0o755); err != nil {
			return Result{}, services.WrapIO("pack", "create package dir", result.Dir, err)
		}
		result.Status = StatusCreated
	}

	copies, err := a.copySamples(ctx, result.Dir, samples)
	result.Copies = copies
	if err != nil {
		a.rollback(ctx, result)
		return Result{}, err
	}

	manifest, err := result.Package.Encode()
	if err != nil {
		a.rollback(ctx, result)
		return Result{}, err
	}
	if err := fileutil.WriteFileAtomic(result.ManifestPath, manifest, 0o644); err != nil {
		a.rollback(ctx, result)
		return Result{}, services.WrapIO("pack", "write manifest", result.ManifestPath, err)
	}

	if a.index != nil {
		if err := a.index.RecordPackage(ctx, result.Package); err != nil {
			logging.WarnWithContext(logger, "asset index update failed", "index_update_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run soundpack index rebuild"),
				logging.String(logging.FieldImpact, "duplicate detection may miss this package"),
			)
		}
	}

	cat, err := a.catalog.Rebuild(ctx)
	if err != nil {
		return result, err
	}
	result.Catalog = cat

	logger.InfoContext(ctx, "package written",
		logging.String("status", string(result.Status)),
		logging.Int("discovered", result.Discovered),
		logging.Int("kept", result.Kept),
		logging.Int("copied", result.Copied()),
		logging.Int("already_present", result.AlreadyPresent()),
		logging.String(logging.FieldHash, a.hasher.Short(packageHash)),
		logging.String(logging.FieldEventType, "package_written"),
	)
	return result, nil
}

func (a *Assembler) skip(ctx context.Context, logger *slog.Logger, result Result) Result {
	result.Status = StatusSkipped
	logger.InfoContext(ctx, "package already exists; skipping",
		logging.String(logging.FieldPath, result.Dir),
		logging.String(logging.FieldEventType, "package_skipped"),
		logging.String(logging.FieldErrorHint, "pass --overwrite to refresh the package"),
	)
	return result
}

func (a *Assembler) copySamples(ctx context.Context, dir string, samples []asset.Descriptor) ([]CopyReport, error) {
	reports := make([]CopyReport, 0, len(samples))
	for _, sample := range samples {
		dst := filepath.Join(dir, sample.File)
		outcome, err := fileutil.EnsurePresent(sample.SourcePath, dst)
		reports = append(reports, CopyReport{File: sample.File, Outcome: outcome})
		if err != nil {
			return reports, services.WrapIO("pack", "copy sample", sample.File, err)
		}
		if outcome == fileutil.AlreadyPresent {
			a.logger.DebugContext(ctx, "sample already present",
				logging.String("file", sample.File),
				logging.String(logging.FieldPath, dst),
			)
		}
	}
	return reports, nil
}

// rollback removes the files this run copied and, for a package created by
// this run, the directory itself.
func (a *Assembler) rollback(ctx context.Context, result Result) {
	for _, c := range result.Copies {
		if c.Outcome != fileutil.Copied {
			continue
		}
		if err := os.Remove(filepath.Join(result.Dir, c.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.WarnContext(ctx, "rollback remove failed", logging.String("file", c.File), logging.Error(err))
		}
	}
	if result.Status == StatusCreated {
		if err := os.Remove(result.Dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.WarnContext(ctx, "rollback remove dir failed", logging.String(logging.FieldPath, result.Dir), logging.Error(err))
		}
	}
}

func (a *Assembler) plan(result Result) (Result, error) {
	planned, err := result.Package.Encode()
	if err != nil {
		return Result{}, err
	}
	current, err := os.ReadFile(result.ManifestPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Result{}, services.WrapIO("pack", "plan", result.ManifestPath, err)
	}
	diff, err := manifestDiff(a.layout.ManifestName, current, planned)
	if err != nil {
		return Result{}, fmt.Errorf("pack: render diff: %w", err)
	}
	result.Status = StatusPlanned
	result.Diff = diff
	return result, nil
}

func dropReason(desc asset.Descriptor) string {
	switch {
	case desc.Invalid != "":
		return "probe failed: " + desc.Invalid
	case desc.Bytes < asset.MinBytes:
		return "empty file"
	default:
		return "non-positive duration"
	}
}
