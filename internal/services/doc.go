// Package services defines shared plumbing consumed by the packaging
// components and the external integrations they call.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, package IDs, and operation names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep the failure
//     taxonomy (not found, permission, validation, already exists) uniform so
//     the CLI can classify any error with errors.Is.
//
// Use these helpers when wiring new component logic so operational behaviour
// stays consistent across the packaging pipeline.
package services
