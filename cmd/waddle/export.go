package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/waddle/internal/config"
	"github.com/MikeSquared-Agency/waddle/internal/export"
)

// readExport decodes the export at path. The extension picks the container.
func readExport(path string) ([]export.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	convs, err := export.Decode(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return convs, nil
}

// cliLogger logs text to stderr. Unless LOG_LEVEL is set the CLI only reports
// warnings, so charts are not interleaved with info records.
func cliLogger(cfg config.Config) (*slog.Logger, func() error) {
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case os.Getenv("LOG_LEVEL") == "":
		cfg.LogLevel = "warn"
	}
	return config.SetupLogger(cfg, false)
}
