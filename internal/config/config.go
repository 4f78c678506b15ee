package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. ResourcesDir is the engine
// resources root; packages live under ResourcesDir/PackagesSubdir and
// artifact resources under ResourcesDir/ArtifactsSubdir.
type Paths struct {
	ResourcesDir    string `toml:"resources_dir"`
	PackagesSubdir  string `toml:"packages_subdir"`
	ArtifactsSubdir string `toml:"artifacts_subdir"`
	DataDir         string `toml:"data_dir"`
	LogDir          string `toml:"log_dir"`
	IndexPath       string `toml:"index_path"`
	ExportsDir      string `toml:"exports_dir"`
}

// Packaging contains configuration for the package assembler.
type Packaging struct {
	Include        []string `toml:"include"`
	ManifestName   string   `toml:"manifest_name"`
	CatalogName    string   `toml:"catalog_name"`
	DefaultCreator string   `toml:"default_creator"`
	CreatorWebsite string   `toml:"creator_website"`
	IDHashSuffix   bool     `toml:"id_hash_suffix"`
	Lock           bool     `toml:"lock"`
}

// Hashing selects the digest used for content hashes.
type Hashing struct {
	Algorithm   string `toml:"algorithm"`
	ShortLength int    `toml:"short_length"`
}

// Probe contains configuration for audio inspection.
type Probe struct {
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Upload contains configuration for the pinning service.
type Upload struct {
	Enabled        bool   `toml:"enabled"`
	JWT            string `toml:"jwt"`
	FileURL        string `toml:"file_url"`
	JSONURL        string `toml:"json_url"`
	Gateway        string `toml:"gateway"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Export contains configuration for package archives.
type Export struct {
	Compression string `toml:"compression"`
}

// Index contains configuration for the content hash index.
type Index struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	File          bool   `toml:"file"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for soundpack.
//
// Configuration sections by subsystem:
//   - Paths: resources root, derived artifact data, logs, index, exports
//   - Packaging: include patterns, manifest/catalog names, creator defaults
//   - Hashing: digest algorithm and short hash length
//   - Probe: ffprobe binary used to inspect audio
//   - Upload: pinning service credentials and endpoints
//   - Export: archive compression
//   - Index: sqlite content hash index
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Packaging Packaging `toml:"packaging"`
	Hashing   Hashing   `toml:"hashing"`
	Probe     Probe     `toml:"probe"`
	Upload    Upload    `toml:"upload"`
	Export    Export    `toml:"export"`
	Index     Index     `toml:"index"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundpack/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/soundpack/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundpack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// PackagesDir returns the directory holding one subdirectory per package.
func (c *Config) PackagesDir() string {
	return filepath.Join(c.Paths.ResourcesDir, c.Paths.PackagesSubdir)
}

// ArtifactsDir returns the directory holding artifact resource folders.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.Paths.ResourcesDir, c.Paths.ArtifactsSubdir)
}

// CatalogPath returns the location of the aggregated catalog file.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.PackagesDir(), c.Packaging.CatalogName)
}

// MetadataDir returns the directory derived artifact records are keyed into.
func (c *Config) MetadataDir() string {
	return filepath.Join(c.Paths.DataDir, "metadata")
}

// EnsureDirectories creates the directories soundpack writes into. The
// packages directory is created here so the assembler only ever creates
// per-package subdirectories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.PackagesDir(), c.Paths.DataDir}
	if c.Logging.File {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used for audio inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Probe.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
