package micego

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with micego-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithColumn adds a column field to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// WithCopy adds an imputation copy field to the logger.
func (l *Logger) WithCopy(copy int) *Logger {
	return &Logger{
		Logger: l.Logger.With("copy", copy),
	}
}

// LogRunStart logs the start of a fresh run.
func (l *Logger) LogRunStart(ctx context.Context, columns, m, iter int) {
	l.InfoContext(ctx, "run started",
		"columns", columns,
		"m", m,
		"iterations", iter,
	)
}

// LogResume logs the continuation of a prior run.
func (l *Logger) LogResume(ctx context.Context, priorIterations, addIterations int) {
	l.InfoContext(ctx, "run resumed",
		"prior_iterations", priorIterations,
		"additional_iterations", addIterations,
	)
}

// LogRunCompleted logs the end of a run.
func (l *Logger) LogRunCompleted(ctx context.Context, iterations, events int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"iterations", iterations,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "run completed",
			"iterations", iterations,
			"events", events,
		)
	}
}
