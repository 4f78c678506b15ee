package pack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"soundpack/internal/hashing"
	"soundpack/internal/services"
)

// Problem kinds reported by Verify.
const (
	ProblemMissing  = "missing"
	ProblemHash     = "hash_mismatch"
	ProblemSize     = "size_mismatch"
	ProblemCount    = "count_mismatch"
	ProblemPackHash = "package_hash_mismatch"
)

// Problem is one inconsistency between a manifest and its directory.
type Problem struct {
	File   string
	Kind   string
	Detail string
}

// Verify re-hashes every sample listed in the manifest at dir and compares
// it with the recorded hash. A nil slice means the package is intact.
func Verify(ctx context.Context, h *hashing.Hasher, dir, manifestName string) ([]Problem, error) {
	pkg, err := ReadManifest(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}
	var problems []Problem
	if pkg.Metadata.NumSamples != len(pkg.Samples) {
		problems = append(problems, Problem{Kind: ProblemCount, Detail: "numSamples disagrees with the sample list"})
	}
	for _, sample := range pkg.Samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, sample.File)
		sum, err := h.HashFile(path, false)
		if errors.Is(err, services.ErrNotFound) {
			problems = append(problems, Problem{File: sample.File, Kind: ProblemMissing})
			continue
		}
		if err != nil {
			return nil, err
		}
		if info, err := os.Stat(path); err == nil && info.Size() != sample.Bytes {
			problems = append(problems, Problem{File: sample.File, Kind: ProblemSize, Detail: fmt.Sprintf("%d bytes on disk, %d recorded", info.Size(), sample.Bytes)})
		}
		if sum != sample.Hash {
			problems = append(problems, Problem{File: sample.File, Kind: ProblemHash, Detail: h.Short(sample.Hash) + " != " + h.Short(sum)})
		}
	}
	if pkg.Metadata.Hash != "" {
		want, err := PackageHash(h, pkg.Samples)
		if err != nil {
			return nil, err
		}
		if want != pkg.Metadata.Hash {
			problems = append(problems, Problem{Kind: ProblemPackHash, Detail: "metadata hash does not match the sample hashes"})
		}
	}
	return problems, nil
}
