// Package ctxlog carries a slog.Logger through context.Context so that every
// stage of a compilation or run logs with the attributes of its caller.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported so other packages cannot collide with our context key.
type key struct{}

var loggerKey = key{}

// WithLogger returns a child context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger embedded in ctx, or the process-wide default
// logger when none was set.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
