package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the extraction backend.
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Model service configuration (Ollama-compatible chat endpoint)
	ModelServiceURL string
	ModelName       string

	// Transcription engine configuration
	WhisperBinary    string
	WhisperModelPath string
	WhisperModel     string

	// OCR engine configuration
	OCRBinary          string
	OCRDefaultLanguage string

	// Database configuration (optional; absence degrades retrieval
	// to the static corpus)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration (optional; absence disables the result cache)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string
}

// Load creates a new Config instance with values from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerHost:         getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ModelServiceURL:    getEnv("MODEL_SERVICE_URL", "http://localhost:11434"),
		ModelName:          getEnv("MODEL_NAME", "llama3.1"),
		WhisperBinary:      os.Getenv("WHISPER_BINARY"),
		WhisperModelPath:   os.Getenv("WHISPER_MODEL_PATH"),
		WhisperModel:       getEnv("WHISPER_MODEL", "small"),
		OCRBinary:          getEnv("OCR_BINARY", "tesseract"),
		OCRDefaultLanguage: getEnv("OCR_DEFAULT_LANGUAGE", "spa"),
		DBHost:             os.Getenv("DB_HOST"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             os.Getenv("DB_NAME"),
		DBSSLMode:          getEnv("DB_SSL_MODE", "disable"),
		RedisHost:          os.Getenv("REDIS_HOST"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisURL:           os.Getenv("REDIS_URL"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DBConfigured reports whether a live datastore has been configured.
func (c *Config) DBConfigured() bool {
	return c.DBHost != "" && c.DBName != ""
}

// RedisConfigured reports whether a redis cache has been configured.
func (c *Config) RedisConfigured() bool {
	return c.RedisHost != "" || c.RedisURL != ""
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
