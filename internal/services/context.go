package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	packageIDKey contextKey = "package_id"
	operationKey contextKey = "operation"
)

// WithRunID annotates context with the CLI invocation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the invocation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPackageID annotates context with the package being assembled.
func WithPackageID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, packageIDKey, id)
}

// PackageIDFromContext returns the package id if present.
func PackageIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(packageIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the top-level operation name
// (build, artifact, rebuild, export).
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
