package logging

import (
	"context"
	"log/slog"

	"soundpack/internal/services"
)

const (
	// FieldComponent identifies the subsystem emitting the log line.
	FieldComponent = "component"
	// FieldRunID identifies one CLI invocation.
	FieldRunID = "run_id"
	// FieldPackageID identifies the package being assembled.
	FieldPackageID = "package_id"
	// FieldOperation names the high level operation (build, artifact, export).
	FieldOperation = "operation"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Kind for failed operations.
	FieldErrorKind = "error_kind"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	FieldPath   = "path"
	FieldHash   = "hash"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.PackageIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPackageID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
