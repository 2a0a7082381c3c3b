package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide slog.Logger from LOG_FORMAT and
// LOG_LEVEL env vars ("json"|"text", default json; "debug"|"info"|"warn"|
// "error", default info). corekv configures everything through the
// environment, so logging follows the same convention rather than flags.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(envString("LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(envString("LOG_FORMAT", "json")) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
