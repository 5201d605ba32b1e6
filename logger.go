package advgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/norm"
)

// Logger wraps slog.Logger with advgo-specific context.
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

// WithAttack adds the attack name to the logger.
func (l *Logger) WithAttack(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("attack", name),
	}
}

// WithNorm adds the perturbation norm to the logger.
func (l *Logger) WithNorm(n norm.Norm) *Logger {
	return &Logger{
		Logger: l.Logger.With("norm", n.String()),
	}
}

// WithIndex adds a sample index field to the logger.
func (l *Logger) WithIndex(index int) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", index),
	}
}

// WithSamples adds a sample count field to the logger.
func (l *Logger) WithSamples(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("samples", count),
	}
}

// LogLabelResolution logs the oracle call that resolves original labels.
func (l *Logger) LogLabelResolution(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "label resolution failed",
			"samples", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "labels resolved",
			"samples", count,
		)
	}
}

// LogSample logs the outcome of a single sample's attack.
func (l *Logger) LogSample(ctx context.Context, index int, status attack.Status, distance float64, queries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sample attack failed",
			"index", index,
			"status", status.String(),
			"queries", queries,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sample attack completed",
			"index", index,
			"status", status.String(),
			"distance", distance,
			"queries", queries,
		)
	}
}

// LogGenerate logs a batch generation run.
func (l *Logger) LogGenerate(ctx context.Context, samples, failed, queries int) {
	if failed > 0 {
		l.WarnContext(ctx, "generation completed with failures",
			"total", samples,
			"failed", failed,
			"success", samples-failed,
			"queries", queries,
		)
	} else {
		l.InfoContext(ctx, "generation completed",
			"samples", samples,
			"queries", queries,
		)
	}
}
