// Package observability carries request-scoped logging context.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/jenkinsrest/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RequestID string
	Operation string
	Method    string
	Path      string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithOperation records the descriptor being invoked.
func WithOperation(ctx context.Context, name, method, path string) context.Context {
	lc := extractLogContext(ctx)
	lc.Operation = name
	lc.Method = method
	lc.Path = path
	return context.WithValue(ctx, logContextKey, lc)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	return extractLogContext(ctx).RequestID
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 4)

	if lc.RequestID != "" {
		attrs = append(attrs, logfields.RequestID(lc.RequestID))
	}
	if lc.Operation != "" {
		attrs = append(attrs, logfields.Operation(lc.Operation))
	}
	if lc.Method != "" {
		attrs = append(attrs, logfields.Method(lc.Method))
	}
	if lc.Path != "" {
		attrs = append(attrs, logfields.Path(lc.Path))
	}
	return attrs
}

// Logger is the subset of *slog.Logger used here.
type Logger interface {
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

// LogAttrs logs through logger (slog.Default when nil) with the context's
// fields prepended.
func LogAttrs(ctx context.Context, logger Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, level, msg, append(getLogAttrs(ctx), attrs...)...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	LogAttrs(ctx, nil, slog.LevelInfo, msg, attrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	LogAttrs(ctx, nil, slog.LevelWarn, msg, attrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	LogAttrs(ctx, nil, slog.LevelError, msg, attrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	LogAttrs(ctx, nil, slog.LevelDebug, msg, attrs...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
