// Package config loads AncestrE settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultFamilyDir       = "userData/families/"
	DefaultDBPath          = "./data/ancestre.db"
	DefaultHistoryCapacity = 100
	DefaultQueueSize       = 100
	DefaultLogLevel        = "warn"
)

// Config holds the runtime settings.
type Config struct {
	// FamilyDir is where .fam/.rel files are saved when no file is open.
	FamilyDir string `yaml:"family_dir"`

	// DBPath is the SQLite archive location.
	DBPath string `yaml:"db_path"`

	// HistoryCapacity bounds the undo and redo stacks.
	HistoryCapacity int `yaml:"history_capacity"`

	// QueueSize is the command queue buffer.
	QueueSize int `yaml:"queue_size"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FamilyDir:       DefaultFamilyDir,
		DBPath:          DefaultDBPath,
		HistoryCapacity: DefaultHistoryCapacity,
		QueueSize:       DefaultQueueSize,
		LogLevel:        DefaultLogLevel,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read the config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
			}
		}
	}

	cfg.FamilyDir = getEnv("ANCESTRE_FAMILY_DIR", cfg.FamilyDir)
	cfg.DBPath = getEnv("ANCESTRE_DB_PATH", getEnv("DB_PATH", cfg.DBPath))
	cfg.LogLevel = getEnv("ANCESTRE_LOG_LEVEL", getEnv("LOG_LEVEL", cfg.LogLevel))

	var err error
	if cfg.HistoryCapacity, err = getEnvInt("ANCESTRE_HISTORY_CAPACITY", cfg.HistoryCapacity); err != nil {
		return cfg, err
	}
	if cfg.QueueSize, err = getEnvInt("ANCESTRE_QUEUE_SIZE", cfg.QueueSize); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("history capacity must be at least 1, got %d", c.HistoryCapacity)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize)
	}
	if c.FamilyDir == "" {
		return errors.New("family directory is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
