package config

import (
	"log/slog"
	"os"
	"strings"
)

const (
	defaultDBPath  = "./dev.db"
	defaultPort    = "8080"
	defaultEnv     = "dev"
	defaultProfile = "default"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	DBPath         string
	Port           string
	RatesFile      string
	DefaultProfile string
	LogLevel       slog.Level
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		Env:            os.Getenv("APP_ENV"),
		DBPath:         os.Getenv("DB_PATH"),
		Port:           os.Getenv("PORT"),
		RatesFile:      os.Getenv("RATES_FILE"),
		DefaultProfile: os.Getenv("DEFAULT_PROFILE"),
		LogLevel:       parseLevel(os.Getenv("LOG_LEVEL")),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = defaultProfile
	}

	return cfg
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
