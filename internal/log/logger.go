package log

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	default:
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	}

	l := slog.New(handler)
	if config.Component != "" {
		l = l.With("component", config.Component)
	}

	return &Logger{
		slog:   l,
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithGroup returns a new Logger with a group name that prefixes all attributes
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slog:   l.slog.WithGroup(name),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// A PipelineError anywhere in the chain contributes error_code and cause.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(errorArgs(err)...)
}

func errorArgs(err error) []any {
	var pe *errors.PipelineError
	if !stderrors.As(err, &pe) {
		return []any{"error", err.Error()}
	}

	args := []any{
		"error", pe.Message,
		"error_code", string(pe.Code),
	}
	if len(pe.Suggestions) > 0 {
		args = append(args, "suggestions", pe.Suggestions)
	}
	if pe.Cause != nil {
		args = append(args, "cause", pe.Cause.Error())
	}
	return args
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// LogError logs err with its code, suggestions and cause
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	l.Error("operation failed", errorArgs(err)...)
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
