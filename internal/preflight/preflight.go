package preflight

import (
	"context"

	"soundpack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never fail the overall run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Resources directory", cfg.Paths.ResourcesDir))
	results = append(results, CheckCreatable("Packages directory", cfg.PackagesDir()))
	results = append(results, CheckCreatable("Metadata directory", cfg.MetadataDir()))
	results = append(results, CheckCreatable("Exports directory", cfg.Paths.ExportsDir))

	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Detail
		if status.Available {
			detail = status.Command
			if status.Version != "" {
				detail += " (" + status.Version + ")"
			}
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}

	if cfg.Index.Enabled {
		results = append(results, CheckIndex(cfg.Paths.IndexPath))
	}
	if cfg.Upload.Enabled {
		results = append(results, CheckUpload(ctx, cfg.Upload))
	}
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
