package nearest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with assignment-specific helpers.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRunID tags every record with a run identifier.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithWorkers adds a workers field to the logger.
func (l *Logger) WithWorkers(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("workers", n),
	}
}

// LogAssign logs an assignment call.
func (l *Logger) LogAssign(ctx context.Context, sources, targets, workers int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "assign failed",
			"sources", sources,
			"targets", targets,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "assign completed",
		"sources", sources,
		"targets", targets,
		"workers", workers,
		"duration", d,
	)
}

// LogMutual logs a two-sided assignment.
func (l *Logger) LogMutual(ctx context.Context, a, b int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mutual assign failed",
			"team_a", a,
			"team_b", b,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "mutual assign completed",
		"team_a", a,
		"team_b", b,
	)
}
