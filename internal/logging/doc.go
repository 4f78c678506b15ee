// Package logging assembles the slog loggers used across soundpack.
//
// It owns the console and JSON handlers, level parsing, and output routing.
// When file logging is enabled, console output is teed into a JSON run log
// under the configured log directory and older run logs are pruned.
// Context helpers attach run, package, and operation identifiers so every
// line emitted while building a package can be traced back to that run.
//
// NewNop returns a discard logger for tests and for wiring code that should
// never fail.
package logging
