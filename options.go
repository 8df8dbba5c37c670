package proxigo

import (
	"log/slog"
	"runtime"
)

type options struct {
	logger        *Logger
	workers       int
	maxConcurrent int64
	cellWidth     float32
	bruteForce    bool
}

// Option configures Engine construction.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. width-specific constructor variants).
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := proxigo.NewJSONLogger(slog.LevelInfo)
//	eng, _ := proxigo.New(b, points, proxigo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers configures the number of goroutines used for parallel
// neighbor-list builds. Values below 1 fall back to GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithMaxConcurrent bounds the number of neighbor-list builds running at
// the same time. Zero or negative means unbounded.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		o.maxConcurrent = int64(n)
	}
}

// WithCellWidth pins the grid cell width instead of deriving it from the
// query arguments. The width must still fit the box: twice the width may
// not exceed any nearest-plane distance.
func WithCellWidth(width float32) Option {
	return func(o *options) {
		o.cellWidth = width
	}
}

// WithBruteForce bypasses the grid index entirely and answers every query
// by exhaustive scan. Useful for tiny point sets and as a reference oracle.
func WithBruteForce() Option {
	return func(o *options) {
		o.bruteForce = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:  NoopLogger(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o
}
