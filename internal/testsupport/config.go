package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"soundpack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The packages directory is created so assemblers can run immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ResourcesDir = filepath.Join(base, "Resources")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.IndexPath = filepath.Join(base, "index.db")
	cfgVal.Paths.ExportsDir = filepath.Join(base, "exports")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.PackagesDir(), 0o755); err != nil {
		t.Fatalf("mkdir packages dir: %v", err)
	}
	return builder.cfg
}

// WithoutIndex disables the sqlite content index.
func WithoutIndex() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Index.Enabled = false
	}
}

// WithIDHashSuffix enables content-hash suffixes on package ids.
func WithIDHashSuffix() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Packaging.IDHashSuffix = true
	}
}

// WithHashAlgorithm selects the digest used by the config.
func WithHashAlgorithm(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Hashing.Algorithm = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ResourcesDir)
}
