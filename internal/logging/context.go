// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 5)

	// Trace correlation (from OpenTelemetry)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if launchID := LaunchIDFromContext(ctx); launchID != "" {
		fields = append(fields, zap.String("launch_id", launchID))
	}

	if spec := KernelSpecFromContext(ctx); spec != "" {
		fields = append(fields, zap.String("kernel_spec", spec))
	}

	return fields
}

// Context key types
type launchCtxKey struct{}
type kernelSpecCtxKey struct{}

// WithLaunchID adds the kernel launch identifier to context.
func WithLaunchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, launchCtxKey{}, id)
}

// LaunchIDFromContext extracts the launch identifier from context.
func LaunchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(launchCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithKernelSpec adds the kernel spec name to context.
func WithKernelSpec(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, kernelSpecCtxKey{}, name)
}

// KernelSpecFromContext extracts the kernel spec name from context.
func KernelSpecFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(kernelSpecCtxKey{}).(string); ok {
		return name
	}
	return ""
}
