// Package fileutil holds the small filesystem primitives packaging relies
// on: verified copies, the never-overwrite EnsurePresent copy, and atomic
// whole-file writes for manifests and catalogs.
package fileutil
