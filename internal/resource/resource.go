// Package resource describes the files a derived artifact depends on and
// where the engine can load them from.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"soundpack/internal/fileutil"
	"soundpack/internal/hashing"
	"soundpack/internal/logging"
	"soundpack/internal/services"
	"soundpack/internal/textutil"
	"soundpack/internal/upload"
)

// Category classifies what a resource is used for.
type Category string

const (
	CategorySample     Category = "sample"
	CategoryThumbnail  Category = "thumbnail"
	CategorySamplePack Category = "samplepack"
	CategorySettings   Category = "settings"
)

// Location tells the engine where to resolve a resource URI. The numeric
// values are part of the record format.
type Location int

const (
	LocationPackage Location = 0
	LocationLocal   Location = 1
	LocationAppData Location = 2
	LocationWeb     Location = 3
)

func (l Location) String() string {
	switch l {
	case LocationPackage:
		return "package"
	case LocationLocal:
		return "local"
	case LocationAppData:
		return "appdata"
	case LocationWeb:
		return "web"
	default:
		return fmt.Sprintf("location(%d)", int(l))
	}
}

// Data is one resource entry of a derived artifact record.
type Data struct {
	Type     string   `json:"type"`
	Category Category `json:"category"`
	Location Location `json:"location"`
	URI      string   `json:"uri"`
	Hash     string   `json:"hash"`
	Bytes    int64    `json:"bytes"`
}

// Factory creates resource records for local files.
type Factory struct {
	hasher       *hashing.Hasher
	resourcesDir string
	subdir       string
	uploader     upload.Uploader
	logger       *slog.Logger
}

// NewFactory constructs a Factory rooted at the engine resources directory.
// subdir must not be the packages subdirectory: everything there is read
// as a package. uploader may be nil when web resources are not needed.
func NewFactory(hasher *hashing.Hasher, resourcesDir, subdir string, uploader upload.Uploader, logger *slog.Logger) *Factory {
	if hasher == nil {
		hasher = hashing.Default()
	}
	return &Factory{
		hasher:       hasher,
		resourcesDir: resourcesDir,
		subdir:       subdir,
		uploader:     uploader,
		logger:       logging.NewComponentLogger(logger, "resource"),
	}
}

// Package places src under {resourcesDir}/{subdir}/{slug(title)}
// and returns a package-located record whose URI is the engine resource
// path (relative, extension stripped). An existing file with the same name
// is left in place.
func (f *Factory) Package(ctx context.Context, src string, category Category, title string) (Data, error) {
	sum, size, err := f.describe(src)
	if err != nil {
		return Data{}, err
	}
	if strings.TrimSpace(title) == "" {
		title = textutil.TitleCase(textutil.FileStem(filepath.Base(src)))
	}
	folder := textutil.Slug(title)
	dir := filepath.Join(f.resourcesDir, f.subdir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Data{}, services.WrapIO("resource", "package", dir, err)
	}
	name := filepath.Base(src)
	outcome, err := fileutil.EnsurePresent(src, filepath.Join(dir, name))
	if err != nil {
		return Data{}, services.WrapIO("resource", "package", name, err)
	}
	f.logger.DebugContext(ctx, "package resource placed",
		logging.String(logging.FieldPath, filepath.Join(dir, name)),
		logging.String("outcome", outcome.String()),
	)
	return Data{
		Type:     TypeForFile(src),
		Category: category,
		Location: LocationPackage,
		URI:      path.Join(filepath.ToSlash(f.subdir), folder, textutil.FileStem(name)),
		Hash:     sum,
		Bytes:    size,
	}, nil
}

// Web uploads src through the configured uploader and returns a
// web-located record pointing at the gateway URL.
func (f *Factory) Web(ctx context.Context, src string, category Category) (Data, error) {
	if f.uploader == nil {
		return Data{}, services.Wrap(services.ErrConfiguration, "resource", "web", "upload is not configured", nil)
	}
	sum, size, err := f.describe(src)
	if err != nil {
		return Data{}, err
	}
	pin, err := f.uploader.PinFile(ctx, src, "")
	if err != nil {
		return Data{}, err
	}
	f.logger.InfoContext(ctx, "web resource uploaded",
		logging.String("cid", pin.CID),
		logging.String("url", pin.URL),
		logging.String(logging.FieldEventType, "resource_uploaded"),
	)
	return Data{
		Type:     TypeForFile(src),
		Category: category,
		Location: LocationWeb,
		URI:      pin.URL,
		Hash:     sum,
		Bytes:    size,
	}, nil
}

// Local records src in place without copying it.
func (f *Factory) Local(src string, category Category) (Data, error) {
	sum, size, err := f.describe(src)
	if err != nil {
		return Data{}, err
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return Data{}, fmt.Errorf("resource local: %w", err)
	}
	return Data{
		Type:     TypeForFile(src),
		Category: category,
		Location: LocationLocal,
		URI:      filepath.ToSlash(abs),
		Hash:     sum,
		Bytes:    size,
	}, nil
}

func (f *Factory) describe(src string) (string, int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, services.WrapIO("resource", "stat", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", 0, services.Wrap(services.ErrValidation, "resource", "stat", src+" is not a regular file", nil)
	}
	sum, err := f.hasher.HashFile(src, false)
	if err != nil {
		return "", 0, err
	}
	return sum, info.Size(), nil
}
