package assetindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"soundpack/internal/asset"
	"soundpack/internal/catalog"
	"soundpack/internal/pack"
	"soundpack/internal/services"
)

// Store is the SQLite-backed asset index.
type Store struct {
	db   *sql.DB
	path string
}

// Location is one place an asset hash was packaged.
type Location struct {
	PackageID string
	File      string
	Bytes     int64
}

// Duplicate is a content hash stored more than once.
type Duplicate struct {
	Hash      string
	Locations []Location
}

// Stats summarizes the index contents.
type Stats struct {
	Packages     int
	Assets       int
	UniqueHashes int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("assetindex: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("assetindex: CBOR decoder initialization failed: " + err.Error())
	}
}

// Open initializes or connects to the index database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.WrapIO("assetindex", "open", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// RecordPackage replaces every row for pkg with its current samples.
func (s *Store) RecordPackage(ctx context.Context, pkg pack.Package) error {
	if strings.TrimSpace(pkg.Metadata.ID) == "" {
		return services.Wrap(services.ErrValidation, "assetindex", "record", "package id is empty", nil)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if err := recordPackageTx(ctx, tx, pkg); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit record: %w", err)
		}
		return nil
	})
}

func recordPackageTx(ctx context.Context, tx *sql.Tx, pkg pack.Package) error {
	meta := pkg.Metadata
	if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE package_id = ?", meta.ID); err != nil {
		return fmt.Errorf("clear assets of %s: %w", meta.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM packages WHERE id = ?", meta.ID); err != nil {
		return fmt.Errorf("clear package %s: %w", meta.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO packages (id, title, hash, num_samples, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.Title, meta.Hash, len(pkg.Samples), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert package %s: %w", meta.ID, err)
	}
	for _, sample := range pkg.Samples {
		props, err := encMode.Marshal(sample.Properties())
		if err != nil {
			return fmt.Errorf("encode properties for %s: %w", sample.File, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (package_id, file, hash, bytes, properties) VALUES (?, ?, ?, ?, ?)`,
			meta.ID, sample.File, sample.Hash, sample.Bytes, props,
		); err != nil {
			return fmt.Errorf("insert asset %s/%s: %w", meta.ID, sample.File, err)
		}
	}
	return nil
}

// Lookup lists every location holding content hash h.
func (s *Store) Lookup(ctx context.Context, h string) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package_id, file, bytes FROM assets WHERE hash = ? ORDER BY package_id, file`, h)
	if err != nil {
		return nil, fmt.Errorf("lookup hash: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.PackageID, &loc.File, &loc.Bytes); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// Duplicates lists content hashes recorded at more than one location,
// ordered by hash.
func (s *Store) Duplicates(ctx context.Context) ([]Duplicate, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT hash, package_id, file, bytes FROM assets
        WHERE hash IN (SELECT hash FROM assets GROUP BY hash HAVING COUNT(*) > 1)
        ORDER BY hash, package_id, file`)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	var out []Duplicate
	for rows.Next() {
		var (
			h   string
			loc Location
		)
		if err := rows.Scan(&h, &loc.PackageID, &loc.File, &loc.Bytes); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].Hash != h {
			out = append(out, Duplicate{Hash: h})
		}
		out[len(out)-1].Locations = append(out[len(out)-1].Locations, loc)
	}
	return out, rows.Err()
}

// Properties returns the probed properties stored for one packaged file.
func (s *Store) Properties(ctx context.Context, packageID, file string) (asset.Properties, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT properties FROM assets WHERE package_id = ? AND file = ?`, packageID, file,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return asset.Properties{}, services.Wrap(services.ErrNotFound, "assetindex", "properties", packageID+"/"+file, nil)
	}
	if err != nil {
		return asset.Properties{}, fmt.Errorf("query properties: %w", err)
	}
	var props asset.Properties
	if err := decMode.Unmarshal(blob, &props); err != nil {
		return asset.Properties{}, fmt.Errorf("decode properties: %w", err)
	}
	return props, nil
}

// Stats counts packages, asset rows, and distinct hashes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(*) FROM packages),
            (SELECT COUNT(*) FROM assets),
            (SELECT COUNT(DISTINCT hash) FROM assets)`,
	).Scan(&st.Packages, &st.Assets, &st.UniqueHashes)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}

// Reindex drops every row and records the manifests behind entries.
func (s *Store) Reindex(ctx context.Context, entries []catalog.Entry) (int, error) {
	packages := make([]pack.Package, 0, len(entries))
	for _, entry := range entries {
		pkg, err := pack.ReadManifest(entry.ManifestPath)
		if err != nil {
			return 0, err
		}
		if pkg.Metadata.ID == "" {
			// flat manifests written by older tooling carry no metadata block
			pkg.Metadata.ID = entry.ID
			pkg.Metadata.Title = entry.Title
		}
		packages = append(packages, pkg)
	}

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin reindex tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, "DELETE FROM assets"); err != nil {
			return fmt.Errorf("clear assets: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM packages"); err != nil {
			return fmt.Errorf("clear packages: %w", err)
		}
		for _, pkg := range packages {
			if err := recordPackageTx(ctx, tx, pkg); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit reindex: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(packages), nil
}
