package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TOTEM_DATABASE_URL.
const EnvPrefix = "TOTEM"

var defaults = map[string]any{
	"server.port":                        8080,
	"server.log_level":                   "info",
	"server.cors_allowed_origins":        []string{"*"},
	"server.shutdown_timeout_seconds":    10,
	"database.url":                       "",
	"database.max_open_conns":            25,
	"database.max_idle_conns":            5,
	"database.conn_max_lifetime_minutes": 5,
	"database.auto_migrate":              false,
	"auth.jwt_secret":                    "",
	"auth.token_lifetime_minutes":        1440,
	"auth.bcrypt_cost":                   10,
	"entities.strict_fields":             false,
}

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the named config file instead of searching
// for config.yaml. A named file that does not exist is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
