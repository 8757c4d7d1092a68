// Package logging provides structured logging for pkgshape built on log/slog
// with component scoping and text or JSON output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface used across pkgshape components.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(err error, msg string, fields ...any)

	WithComponent(component string) Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
	Output io.Writer
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}
}

type slogLogger struct {
	logger *slog.Logger
}

// NewLogger creates a structured logger from config.
func NewLogger(config *Config) Logger {
	if config == nil {
		config = DefaultConfig()
	}

	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &slogLogger{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Debug(msg string, fields ...any) {
	l.logger.Debug(msg, fields...)
}

func (l *slogLogger) Info(msg string, fields ...any) {
	l.logger.Info(msg, fields...)
}

func (l *slogLogger) Warn(msg string, fields ...any) {
	l.logger.Warn(msg, fields...)
}

func (l *slogLogger) Error(err error, msg string, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	l.logger.Error(msg, fields...)
}

func (l *slogLogger) WithComponent(component string) Logger {
	return &slogLogger{logger: l.logger.With("component", component)}
}

// Nop returns a logger that discards everything, for tests.
func Nop() Logger {
	return NewLogger(&Config{Level: "error", Output: io.Discard})
}
