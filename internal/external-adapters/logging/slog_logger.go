// Package logging adapts log/slog to the domain Logger contract.
package logging

import (
	"io"
	"log/slog"

	"github.com/ochairo/sbomgen/internal/domain/interfaces"
)

// SlogLogger implements interfaces.Logger on top of a slog.Logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger writes text records to w; verbose enables Debug
func NewSlogLogger(w io.Writer, verbose bool) *SlogLogger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &SlogLogger{logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// FromSlog wraps an existing slog.Logger
func FromSlog(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Debug logs debug-level messages
func (l *SlogLogger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, attrs(fields)...)
}

// Info logs informational messages
func (l *SlogLogger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, attrs(fields)...)
}

// Warn logs warning messages
func (l *SlogLogger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, attrs(fields)...)
}

// Error logs error messages
func (l *SlogLogger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, attrs(fields)...)
}

func attrs(fields []interfaces.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
