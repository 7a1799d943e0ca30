package config

import (
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
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

// SetupLogger builds the process logger. The service logs JSON to stdout and
// the CLI logs text to stderr; with a log file configured records are also
// written there as JSON. The cleanup function closes the file.
func SetupLogger(cfg Config, jsonOutput bool) (*slog.Logger, func() error) {
	level := ParseLevel(cfg.LogLevel)

	var primary slog.Handler
	if jsonOutput {
		primary = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		primary = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	noop := func() error { return nil }
	if cfg.LogFile == "" {
		return slog.New(primary), noop
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(primary)
		logger.Error("failed to open log file, logging without it", "error", err, "file", cfg.LogFile)
		return logger, noop
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(primary, fileHandler)), file.Close
}
