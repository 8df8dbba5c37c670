package proxigo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with proxigo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithMode adds a query mode field to the logger.
func (l *Logger) WithMode(mode Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", mode.String()),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogIndexBuild logs a spatial index rebuild.
func (l *Logger) LogIndexBuild(ctx context.Context, cells, points int, width float32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"points", points,
			"cell_width", width,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index build completed",
			"cells", cells,
			"points", points,
			"cell_width", width,
		)
	}
}

// LogQuery logs a neighbor query.
func (l *Logger) LogQuery(ctx context.Context, mode Mode, queryPoints int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"mode", mode.String(),
			"query_points", queryPoints,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query started",
			"mode", mode.String(),
			"query_points", queryPoints,
		)
	}
}

// LogNeighborList logs a neighbor-list materialization.
func (l *Logger) LogNeighborList(ctx context.Context, bonds int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "neighbor list build failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "neighbor list built",
			"bonds", bonds,
			"duration", duration,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op string, bonds int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"bonds", bonds,
		)
	}
}
