package pack

import (
	"path/filepath"
	"sort"

	"soundpack/internal/asset"
	"soundpack/internal/hashing"
	"soundpack/internal/textutil"
)

// Slug derives a package id from its title: lowercase, spaces to hyphens.
func Slug(title string) string {
	return textutil.Slug(title)
}

// DefaultTitle title-cases the base name of the source directory.
func DefaultTitle(sourceDir string) string {
	return textutil.TitleCase(filepath.Base(filepath.Clean(sourceDir)))
}

// PackageHash is the content identity of a package: the structured hash of
// its asset hashes in sorted order, so it ignores titles, file names, and
// listing order.
func PackageHash(h *hashing.Hasher, samples []asset.Descriptor) (string, error) {
	hashes := make([]string, 0, len(samples))
	for _, sample := range samples {
		hashes = append(hashes, sample.Hash)
	}
	sort.Strings(hashes)
	return h.HashStructured(hashes, false)
}

// sortSamples orders descriptors by display title, byte-wise, then by file
// name so ties stay deterministic.
func sortSamples(samples []asset.Descriptor) {
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Title != samples[j].Title {
			return samples[i].Title < samples[j].Title
		}
		return samples[i].File < samples[j].File
	})
}
