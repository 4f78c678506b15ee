package asset

import (
	"context"
	"math"
	"path"
	"path/filepath"

	"soundpack/internal/textutil"
)

const (
	// MinBytes is the smallest file size a packaged asset may have.
	MinBytes int64 = 1
	// MinDurationSeconds is exclusive: a probed duration must exceed it.
	MinDurationSeconds = 0.0
)

// Properties are the decoded audio facts reported by a Prober.
type Properties struct {
	Duration   float64 `json:"duration" cbor:"1,keyasint"`
	Channels   int     `json:"channels" cbor:"2,keyasint"`
	SampleRate int     `json:"sampleRate,omitempty" cbor:"3,keyasint,omitempty"`
}

// Prober decodes audio properties for one file.
type Prober interface {
	Probe(ctx context.Context, path string) (Properties, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (Properties, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, path string) (Properties, error) {
	return f(ctx, path)
}

// Descriptor describes one asset as listed in a package manifest.
type Descriptor struct {
	File       string  `json:"file"`
	Title      string  `json:"title"`
	Bytes      int64   `json:"bytes"`
	Hash       string  `json:"hash"`
	Duration   float64 `json:"duration"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sampleRate,omitempty"`
	Resource   string  `json:"resource,omitempty"`

	// SourcePath is where the descriptor was built from.
	SourcePath string `json:"-"`
	// Invalid holds the probe failure reason; empty for usable assets.
	Invalid string `json:"-"`
}

// Properties returns the probed fields of d.
func (d Descriptor) Properties() Properties {
	return Properties{Duration: d.Duration, Channels: d.Channels, SampleRate: d.SampleRate}
}

// IsEligible reports whether d may be packaged: it probed cleanly, holds at
// least MinBytes, and lasts longer than MinDurationSeconds.
func IsEligible(d Descriptor) bool {
	if d.Invalid != "" {
		return false
	}
	if d.Bytes < MinBytes {
		return false
	}
	if math.IsNaN(d.Duration) || d.Duration <= MinDurationSeconds {
		return false
	}
	return true
}

// DisplayTitle derives a human title from a file name: the extension is
// dropped, underscores and hyphens become spaces, and words are title-cased.
func DisplayTitle(name string) string {
	return textutil.TitleCase(textutil.FileStem(name))
}

// ResourceLocator returns the engine resource path for a file placed in a
// package: {resourceRoot}/{packageID}/{file stem}. Locators always use
// forward slashes.
func ResourceLocator(resourceRoot, packageID, file string) string {
	return path.Join(filepath.ToSlash(resourceRoot), packageID, textutil.FileStem(file))
}
