package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port        int    `toml:"port"`
	NatsURL     string `toml:"nats_url"`
	NatsToken   string `toml:"nats_token"`
	DatabaseURL string `toml:"database_url"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	Timezone    string `toml:"timezone"`
	APIToken    string `toml:"api_token"`
	MaxUploadMB int    `toml:"max_upload_mb"`
	HistoryDB   string `toml:"history_db"`
}

// MaxUploadBytes is the upload limit for the HTTP API.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load reads defaults, then the TOML file named by WADDLE_CONFIG if any, then
// the environment. Later sources win.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	cfg := Config{
		Port:        8760,
		LogLevel:    "info",
		Timezone:    "UTC",
		MaxUploadMB: 64,
		HistoryDB:   filepath.Join(home, ".config", "waddle", "history.db"),
	}

	if path := os.Getenv("WADDLE_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(expandHome(path, home), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envInt("WADDLE_PORT", cfg.Port)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envStr("WADDLE_LOG_FILE", cfg.LogFile)
	cfg.Timezone = envStr("WADDLE_TIMEZONE", cfg.Timezone)
	cfg.APIToken = envStr("WADDLE_API_TOKEN", cfg.APIToken)
	cfg.MaxUploadMB = envInt("WADDLE_MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.HistoryDB = envStr("WADDLE_HISTORY_DB", cfg.HistoryDB)

	cfg.LogFile = expandHome(cfg.LogFile, home)
	cfg.HistoryDB = expandHome(cfg.HistoryDB, home)
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
