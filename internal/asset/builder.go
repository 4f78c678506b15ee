package asset

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"soundpack/internal/hashing"
	"soundpack/internal/logging"
	"soundpack/internal/services"
	"soundpack/internal/textutil"
)

// Builder turns source files into Descriptors.
type Builder struct {
	hasher       *hashing.Hasher
	prober       Prober
	resourceRoot string
	logger       *slog.Logger
}

// NewBuilder constructs a Builder. resourceRoot is the package subfolder
// name used as the first segment of resource locators.
func NewBuilder(hasher *hashing.Hasher, prober Prober, resourceRoot string, logger *slog.Logger) *Builder {
	if hasher == nil {
		hasher = hashing.Default()
	}
	return &Builder{
		hasher:       hasher,
		prober:       prober,
		resourceRoot: resourceRoot,
		logger:       logging.NewComponentLogger(logger, "asset"),
	}
}

// Build describes the file at path. When packageTitle is non-empty the
// descriptor also gets a resource locator under that package's slug.
//
// A vanished file is an ErrNotFound error. A probe failure is not an error:
// the descriptor is returned with Invalid set and no content hash.
func (b *Builder) Build(ctx context.Context, path, packageTitle string) (Descriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Descriptor{}, services.WrapIO("asset", "stat", path, err)
	}
	if info.IsDir() {
		return Descriptor{}, services.Wrap(services.ErrValidation, "asset", "stat", path+" is a directory", nil)
	}

	name := filepath.Base(path)
	desc := Descriptor{
		File:       name,
		Title:      DisplayTitle(name),
		Bytes:      info.Size(),
		SourcePath: path,
	}

	props, err := b.probe(ctx, path)
	if err != nil {
		desc.Invalid = err.Error()
		b.logger.DebugContext(ctx, "asset probe failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "asset_probe_failed"),
		)
		return desc, nil
	}
	desc.Duration = roundDuration(props.Duration)
	desc.Channels = props.Channels
	desc.SampleRate = props.SampleRate

	sum, err := b.hasher.HashFile(path, false)
	if err != nil {
		return Descriptor{}, err
	}
	desc.Hash = sum

	if packageTitle != "" {
		desc.Resource = ResourceLocator(b.resourceRoot, textutil.Slug(packageTitle), name)
	}
	return desc, nil
}

func (b *Builder) probe(ctx context.Context, path string) (Properties, error) {
	if b.prober == nil {
		return Properties{}, services.Wrap(services.ErrConfiguration, "asset", "probe", "no prober configured", nil)
	}
	return b.prober.Probe(ctx, path)
}

// roundDuration keeps four decimal places, matching previously written manifests.
func roundDuration(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return seconds
	}
	return math.Round(seconds*1e4) / 1e4
}
