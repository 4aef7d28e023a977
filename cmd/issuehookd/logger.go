package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-issue-metrics/core"
)

// slogLogger bridges structured stderr logging into the logger contract the
// rest of the module consumes.
type slogLogger struct {
	logger *slog.Logger
}

func newLogger(level string, serviceName string) core.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(level),
	})
	return slogLogger{
		logger: slog.New(handler).With("service", serviceName),
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func (l slogLogger) Trace(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l slogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l slogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l slogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l slogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l slogLogger) Fatal(msg string, args ...any) {
	l.logger.Error(msg, args...)
	os.Exit(1)
}

func (l slogLogger) WithContext(context.Context) core.Logger {
	return l
}

var _ core.Logger = slogLogger{}
