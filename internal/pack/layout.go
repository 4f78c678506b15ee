package pack

import (
	"path/filepath"

	"soundpack/internal/config"
)

// Layout is the explicit filesystem configuration an Assembler works in.
type Layout struct {
	// PackagesDir holds one subdirectory per package.
	PackagesDir string
	// ResourceRoot is the first segment of resource locators, relative to
	// the engine resources directory (e.g. "SamplePacks").
	ResourceRoot string
	ManifestName string
	CatalogName  string
	// Include lists glob patterns matched against file names.
	Include      []string
	IDHashSuffix bool
	// Lock takes an advisory lock on PackagesDir for the duration of a build.
	Lock bool
}

// LayoutFromConfig derives the layout from loaded configuration.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		PackagesDir:  cfg.PackagesDir(),
		ResourceRoot: cfg.Paths.PackagesSubdir,
		ManifestName: cfg.Packaging.ManifestName,
		CatalogName:  cfg.Packaging.CatalogName,
		Include:      append([]string(nil), cfg.Packaging.Include...),
		IDHashSuffix: cfg.Packaging.IDHashSuffix,
		Lock:         cfg.Packaging.Lock,
	}
}

// PackageDir returns the directory for package id.
func (l Layout) PackageDir(id string) string {
	return filepath.Join(l.PackagesDir, id)
}

// ManifestPath returns the manifest location for package id.
func (l Layout) ManifestPath(id string) string {
	return filepath.Join(l.PackageDir(id), l.ManifestName)
}
