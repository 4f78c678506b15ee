// Package config loads, normalizes, and validates soundpack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SOUNDPACK_RESOURCES_DIR and PINATA_JWT. The Config type is the explicit
// layout every component receives: resources root, package subfolder,
// manifest and catalog file names, hashing options, and collaborator
// endpoints.
//
// Always obtain settings through this package so components receive
// sanitized paths and clear validation errors instead of reaching for
// process-wide globals.
package config
