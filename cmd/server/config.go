package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/totem-api/internal/config"
	"github.com/phrazzld/totem-api/internal/platform/logger"
)

// loadAppConfig loads the configuration and sets up the default logger.
func loadAppConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"auto_migrate", cfg.Database.AutoMigrate,
		"strict_fields", cfg.Entities.StrictFields)

	return cfg, log, nil
}
