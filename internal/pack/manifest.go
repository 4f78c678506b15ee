package pack

import (
	"encoding/json"
	"fmt"
	"os"

	"soundpack/internal/asset"
	"soundpack/internal/services"
)

// DateLayout is the timestamp format used in manifest metadata.
const DateLayout = "2006-01-02 15:04:05"

// Metadata is the package header stored in a manifest.
type Metadata struct {
	Title       string `json:"title"`
	ID          string `json:"id"`
	Creator     string `json:"creator"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	NumSamples  int    `json:"numSamples"`
	Hash        string `json:"hash"`
}

// Package is the manifest document written into each package directory.
type Package struct {
	Metadata Metadata           `json:"metadata"`
	Samples  []asset.Descriptor `json:"samples"`
}

// Encode renders the manifest with four-space indentation.
func (p Package) Encode() ([]byte, error) {
	if p.Samples == nil {
		p.Samples = []asset.Descriptor{}
	}
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// ReadManifest loads a manifest from disk.
func ReadManifest(path string) (Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Package{}, services.WrapIO("pack", "read manifest", path, err)
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Package{}, services.Wrap(services.ErrValidation, "pack", "read manifest", path, err)
	}
	return pkg, nil
}
