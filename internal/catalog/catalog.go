// Package catalog rebuilds the top-level index of every assembled package.
//
// The catalog is always regenerated from the manifests on disk, never
// patched, so an interrupted or superseded build cannot leave stale rows.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"soundpack/internal/fileutil"
	"soundpack/internal/logging"
	"soundpack/internal/services"
)

// Summary is one catalog row.
type Summary struct {
	Title      string `json:"title"`
	ID         string `json:"id"`
	Creator    string `json:"creator"`
	NumSamples int    `json:"numSamples"`
}

// Catalog is the ordered list of package summaries.
type Catalog []Summary

// Entry pairs a summary with the directory it was read from.
type Entry struct {
	Summary
	Dir          string
	ManifestPath string
}

// Aggregator reads package manifests under one packages directory.
type Aggregator struct {
	packagesDir  string
	manifestName string
	catalogName  string
	logger       *slog.Logger
}

// New constructs an Aggregator.
func New(packagesDir, manifestName, catalogName string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		packagesDir:  packagesDir,
		manifestName: manifestName,
		catalogName:  catalogName,
		logger:       logging.NewComponentLogger(logger, "catalog"),
	}
}

// Path returns the catalog file location.
func (a *Aggregator) Path() string {
	return filepath.Join(a.packagesDir, a.catalogName)
}

// Rebuild scans every package directory, sorts the summaries by title, and
// atomically replaces the catalog file. A package directory whose manifest
// is missing or unreadable aborts the rebuild and leaves the old catalog.
func (a *Aggregator) Rebuild(ctx context.Context) (Catalog, error) {
	entries, err := a.Scan(ctx)
	if err != nil {
		return nil, err
	}
	cat := make(Catalog, 0, len(entries))
	for _, entry := range entries {
		cat = append(cat, entry.Summary)
	}

	payload, err := json.MarshalIndent(cat, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	if err := fileutil.WriteFileAtomic(a.Path(), payload, 0o644); err != nil {
		return nil, services.WrapIO("catalog", "write", a.Path(), err)
	}
	a.logger.InfoContext(ctx, "catalog rebuilt",
		logging.Int("packages", len(cat)),
		logging.String(logging.FieldPath, a.Path()),
		logging.String(logging.FieldEventType, "catalog_rebuilt"),
	)
	return cat, nil
}

// Scan loads the summary of every package directory without writing
// anything. Entries are sorted by title, then id; duplicate ids keep the
// entry whose directory name matches the id.
func (a *Aggregator) Scan(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(a.packagesDir)
	if err != nil {
		return nil, services.WrapIO("catalog", "scan", a.packagesDir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}
		dir := filepath.Join(a.packagesDir, dirEntry.Name())
		manifestPath := filepath.Join(dir, a.manifestName)
		summary, err := readSummary(manifestPath)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Summary: summary, Dir: dir, ManifestPath: manifestPath})
	}

	entries = a.dedupe(ctx, entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Title != entries[j].Title {
			return entries[i].Title < entries[j].Title
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (a *Aggregator) dedupe(ctx context.Context, entries []Entry) []Entry {
	byID := make(map[string]int, len(entries))
	out := entries[:0]
	for _, entry := range entries {
		idx, seen := byID[entry.ID]
		if !seen {
			byID[entry.ID] = len(out)
			out = append(out, entry)
			continue
		}
		kept := out[idx]
		if filepath.Base(entry.Dir) == entry.ID && filepath.Base(kept.Dir) != kept.ID {
			out[idx] = entry
			kept, entry = entry, kept
		}
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "duplicate package id in catalog", "catalog_duplicate_id",
			logging.String(logging.FieldPackageID, entry.ID),
			logging.String("kept_dir", kept.Dir),
			logging.String("ignored_dir", entry.Dir),
			logging.String(logging.FieldErrorHint, "remove or rename one of the package directories"),
			logging.String(logging.FieldImpact, "ignored directory is missing from the catalog"),
		)
	}
	return out
}

// Load reads the catalog file as last written by Rebuild.
func (a *Aggregator) Load() (Catalog, error) {
	return Load(a.Path())
}

// Load reads a catalog file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.WrapIO("catalog", "load", path, err)
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "load", path, err)
	}
	if cat == nil {
		cat = Catalog{}
	}
	return cat, nil
}

// Find returns the entry for id.
func (a *Aggregator) Find(ctx context.Context, id string) (Entry, error) {
	entries, err := a.Scan(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, services.Wrap(services.ErrNotFound, "catalog", "find", fmt.Sprintf("package %q", id), nil)
}

// manifestFile accepts both the nested layout ({metadata, samples}) and the
// flat layout older tooling wrote ({title, id, creator, samples}).
type manifestFile struct {
	Metadata *struct {
		Title   string `json:"title"`
		ID      string `json:"id"`
		Creator string `json:"creator"`
	} `json:"metadata"`
	Title   string            `json:"title"`
	ID      string            `json:"id"`
	Creator string            `json:"creator"`
	Samples []json.RawMessage `json:"samples"`
}

func readSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Summary{}, services.Wrap(services.ErrNotFound, "catalog", "read manifest", path+" is missing; package directory is inconsistent", err)
		}
		return Summary{}, services.WrapIO("catalog", "read manifest", path, err)
	}
	var manifest manifestFile
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Summary{}, services.Wrap(services.ErrValidation, "catalog", "read manifest", path+" is corrupt", err)
	}
	summary := Summary{
		Title:      manifest.Title,
		ID:         manifest.ID,
		Creator:    manifest.Creator,
		NumSamples: len(manifest.Samples),
	}
	if manifest.Metadata != nil {
		summary.Title = manifest.Metadata.Title
		summary.ID = manifest.Metadata.ID
		summary.Creator = manifest.Metadata.Creator
	}
	if strings.TrimSpace(summary.ID) == "" || strings.TrimSpace(summary.Title) == "" {
		return Summary{}, services.Wrap(services.ErrValidation, "catalog", "read manifest", path+" has no title or id", nil)
	}
	return summary, nil
}
