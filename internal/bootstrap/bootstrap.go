// Package bootstrap wires configuration loading and logging for hosting
// processes that embed the job store, mirroring the teacher's
// internal/bootstrap split between InitLogger and LoadConfig.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ravenjobstore/store/config"
)

// InitLogger initializes the structured logger used by the store and its
// demo wiring.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads StoreConfig from the environment, optionally reading a
// local .env file first (development convenience only).
func LoadConfig() (config.StoreConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.StoreConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return cfg, nil
}
