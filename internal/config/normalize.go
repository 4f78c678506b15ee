package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePackaging()
	c.normalizeHashing()
	c.normalizeProbe()
	c.normalizeUpload()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv(resourcesDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.ResourcesDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.ResourcesDir) == "" {
		c.Paths.ResourcesDir = defaultResourcesDir
	}
	if c.Paths.ResourcesDir, err = expandPath(c.Paths.ResourcesDir); err != nil {
		return fmt.Errorf("paths.resources_dir: %w", err)
	}
	c.Paths.PackagesSubdir = strings.Trim(strings.TrimSpace(c.Paths.PackagesSubdir), "/\\")
	if c.Paths.PackagesSubdir == "" {
		c.Paths.PackagesSubdir = defaultPackagesSubdir
	}
	c.Paths.ArtifactsSubdir = strings.Trim(strings.TrimSpace(c.Paths.ArtifactsSubdir), "/\\")
	if c.Paths.ArtifactsSubdir == "" {
		c.Paths.ArtifactsSubdir = defaultArtifactsSubdir
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.IndexPath) == "" {
		c.Paths.IndexPath = defaultIndexPath
	}
	if c.Paths.IndexPath, err = expandPath(c.Paths.IndexPath); err != nil {
		return fmt.Errorf("paths.index_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportsDir) == "" {
		c.Paths.ExportsDir = defaultExportsDir
	}
	if c.Paths.ExportsDir, err = expandPath(c.Paths.ExportsDir); err != nil {
		return fmt.Errorf("paths.exports_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePackaging() {
	patterns := make([]string, 0, len(c.Packaging.Include))
	seen := make(map[string]struct{}, len(c.Packaging.Include))
	for _, pattern := range c.Packaging.Include {
		normalized := strings.TrimSpace(pattern)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		patterns = append(patterns, normalized)
	}
	if len(patterns) == 0 {
		patterns = []string{defaultIncludePattern}
	}
	c.Packaging.Include = patterns
	c.Packaging.ManifestName = strings.TrimSpace(c.Packaging.ManifestName)
	if c.Packaging.ManifestName == "" {
		c.Packaging.ManifestName = defaultManifestName
	}
	c.Packaging.CatalogName = strings.TrimSpace(c.Packaging.CatalogName)
	if c.Packaging.CatalogName == "" {
		c.Packaging.CatalogName = defaultCatalogName
	}
	c.Packaging.DefaultCreator = strings.TrimSpace(c.Packaging.DefaultCreator)
	if c.Packaging.DefaultCreator == "" {
		c.Packaging.DefaultCreator = defaultCreator
	}
	c.Packaging.CreatorWebsite = strings.TrimSpace(c.Packaging.CreatorWebsite)
}

func (c *Config) normalizeHashing() {
	c.Hashing.Algorithm = strings.ToLower(strings.TrimSpace(c.Hashing.Algorithm))
	if c.Hashing.Algorithm == "" {
		c.Hashing.Algorithm = defaultHashAlgorithm
	}
	if c.Hashing.ShortLength == 0 {
		c.Hashing.ShortLength = defaultShortHashLength
	}
}

func (c *Config) normalizeProbe() {
	c.Probe.FFprobeBinary = strings.TrimSpace(c.Probe.FFprobeBinary)
	if c.Probe.FFprobeBinary == "" {
		c.Probe.FFprobeBinary = "ffprobe"
	}
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeout
	}
}

func (c *Config) normalizeUpload() {
	c.Upload.JWT = strings.TrimSpace(c.Upload.JWT)
	if c.Upload.JWT == "" {
		if value, ok := os.LookupEnv(uploadJWTEnv); ok {
			c.Upload.JWT = strings.TrimSpace(value)
		}
	}
	c.Upload.FileURL = strings.TrimSpace(c.Upload.FileURL)
	if c.Upload.FileURL == "" {
		c.Upload.FileURL = defaultUploadFileURL
	}
	c.Upload.JSONURL = strings.TrimSpace(c.Upload.JSONURL)
	if c.Upload.JSONURL == "" {
		c.Upload.JSONURL = defaultUploadJSONURL
	}
	c.Upload.Gateway = strings.TrimSpace(c.Upload.Gateway)
	if c.Upload.Gateway == "" {
		c.Upload.Gateway = defaultUploadGateway
	}
	if !strings.HasSuffix(c.Upload.Gateway, "/") {
		c.Upload.Gateway += "/"
	}
	if c.Upload.TimeoutSeconds <= 0 {
		c.Upload.TimeoutSeconds = defaultUploadTimeout
	}
}

func (c *Config) normalizeExport() {
	c.Export.Compression = strings.ToLower(strings.TrimSpace(c.Export.Compression))
	if c.Export.Compression == "" {
		c.Export.Compression = defaultExportCompression
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
