// Package preflight provides readiness checks for the filesystem paths,
// external binaries, and services soundpack depends on.
//
// The CLI "soundpack config validate" command runs RunAll and prints each
// result. Checks for optional features are skipped when the feature is
// disabled in config.
package preflight
