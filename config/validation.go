package config

import (
	"fmt"
	"net/url"
	"strconv"
)

// Validate checks that the loaded configuration is usable.
func Validate(cfg *Config) error {
	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return fmt.Errorf("SERVER_PORT must be numeric, got %q", cfg.ServerPort)
	}

	u, err := url.Parse(cfg.ModelServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MODEL_SERVICE_URL must be an absolute URL, got %q", cfg.ModelServiceURL)
	}

	if cfg.ModelName == "" {
		return fmt.Errorf("MODEL_NAME must not be empty")
	}

	// A half-configured datastore is more likely a deployment mistake
	// than an intentional corpus-only setup.
	if cfg.DBHost != "" && cfg.DBName == "" {
		return fmt.Errorf("DB_HOST is set but DB_NAME is empty")
	}
	if cfg.DBName != "" && cfg.DBHost == "" {
		return fmt.Errorf("DB_NAME is set but DB_HOST is empty")
	}

	return nil
}
