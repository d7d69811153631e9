// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger used across the controller:
// a thin wrapper over log/slog that adds a "component" tag and a WithError
// helper, plus a process-wide default logger for packages that don't carry
// their own reference.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Config controls how the default logger is constructed.
type Config struct {
	Level     slog.Level
	JSON      bool
	AddSource bool
	Output    io.Writer
	// Syslog, when non-nil and Enabled, mirrors every record to a remote
	// collector alongside Output.
	Syslog *SyslogConfig
}

// ParseLevel maps a config string ("debug","info","warn","error") to a
// slog.Level, defaulting to Info for anything unrecognised.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultConfig returns sensible defaults: human-readable text on stderr at info level.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		JSON:   false,
		Output: os.Stderr,
	}
}

// Logger wraps slog.Logger with a fixed "component" attribute and convenience methods.
type Logger struct {
	base *slog.Logger
}

// New builds a Logger from Config. If cfg.Syslog is set and enabled but the
// collector can't be dialed, the error is dropped and logging falls back to
// Output alone — a missing log sink must never prevent the controller from
// starting.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Syslog != nil && cfg.Syslog.Enabled {
		if sw, err := NewSyslogWriter(*cfg.Syslog); err == nil {
			out = io.MultiWriter(out, sw)
		}
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{base: slog.New(handler)}
}

var std = New(DefaultConfig())

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	if l != nil {
		std = l
	}
}

// WithComponent returns a child logger tagging every record with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{base: l.base.With("component", name)}
}

// WithError returns a child logger with the error attached as the "error" attribute.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{base: l.base.With("error", err.Error())}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.base.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.base.DebugContext(ctx, msg, args...)
}

// Slog exposes the underlying *slog.Logger for callers that need it directly (e.g. net/http).
func (l *Logger) Slog() *slog.Logger { return l.base }

// Package-level helpers bound to the default logger, used by code that has no
// Logger reference of its own (background goroutines, init functions).

func WithComponent(name string) *Logger { return std.WithComponent(name) }
func Debug(msg string, args ...any)     { std.Debug(msg, args...) }
func Info(msg string, args ...any)      { std.Info(msg, args...) }
func Warn(msg string, args ...any)      { std.Warn(msg, args...) }
func Error(msg string, args ...any)     { std.Error(msg, args...) }
