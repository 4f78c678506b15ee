package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePackaging(); err != nil {
		return err
	}
	if err := c.validateHashing(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ResourcesDir) == "" {
		return errors.New("paths.resources_dir must be set")
	}
	if strings.ContainsAny(c.Paths.PackagesSubdir, `/\`) || c.Paths.PackagesSubdir == ".." {
		return fmt.Errorf("paths.packages_subdir must be a single directory name, got %q", c.Paths.PackagesSubdir)
	}
	if strings.ContainsAny(c.Paths.ArtifactsSubdir, `/\`) || c.Paths.ArtifactsSubdir == ".." {
		return fmt.Errorf("paths.artifacts_subdir must be a single directory name, got %q", c.Paths.ArtifactsSubdir)
	}
	// every directory under the packages root must be a package
	if strings.EqualFold(c.Paths.ArtifactsSubdir, c.Paths.PackagesSubdir) {
		return fmt.Errorf("paths.artifacts_subdir must differ from paths.packages_subdir (%q)", c.Paths.PackagesSubdir)
	}
	return nil
}

func (c *Config) validatePackaging() error {
	for _, name := range []struct{ key, value string }{
		{"packaging.manifest_name", c.Packaging.ManifestName},
		{"packaging.catalog_name", c.Packaging.CatalogName},
	} {
		if name.value != filepath.Base(name.value) {
			return fmt.Errorf("%s must be a plain file name, got %q", name.key, name.value)
		}
	}
	if c.Packaging.ManifestName == c.Packaging.CatalogName {
		return errors.New("packaging.manifest_name and packaging.catalog_name must differ")
	}
	for _, pattern := range c.Packaging.Include {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("packaging.include: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateHashing() error {
	switch c.Hashing.Algorithm {
	case "sha256", "blake3":
	default:
		return fmt.Errorf("hashing.algorithm must be sha256 or blake3, got %q", c.Hashing.Algorithm)
	}
	if c.Hashing.ShortLength < minShortHashLength || c.Hashing.ShortLength > maxShortHashLength {
		return fmt.Errorf("hashing.short_length must be between %d and %d", minShortHashLength, maxShortHashLength)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if !c.Upload.Enabled {
		return nil
	}
	if c.Upload.JWT == "" {
		return fmt.Errorf("upload.jwt must be set when upload.enabled is true (or set %s)", uploadJWTEnv)
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.Compression {
	case "zstd", "lz4", "none":
		return nil
	default:
		return fmt.Errorf("export.compression must be zstd, lz4, or none, got %q", c.Export.Compression)
	}
}
