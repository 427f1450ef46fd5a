package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/cesargomez89/catalogsync/internal/constants"
)

// ConfigPathEnvVar names the optional YAML file loaded between defaults and env.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config holds all application configuration
type Config struct {
	Port             string        `koanf:"port"`
	DBPath           string        `koanf:"db_path"`
	LogLevel         string        `koanf:"log_level"`
	LogFormat        string        `koanf:"log_format"`
	CronSecret       string        `koanf:"cron_secret"`
	WriteMode        string        `koanf:"write_mode"`
	SyncInterval     time.Duration `koanf:"sync_interval"`
	ProviderTimeout  time.Duration `koanf:"provider_timeout"`
	ProviderRetry    time.Duration `koanf:"provider_retry_base"`
	ProviderRate     float64       `koanf:"provider_rate_limit"`
	ChunkSize        int           `koanf:"chunk_size"`
	WorkerPoolSize   int           `koanf:"worker_pool_size"`
	ProviderRetries  int           `koanf:"provider_retries"`
	TriggerRateLimit int           `koanf:"trigger_rate_limit"`
	PruneRemoved     bool          `koanf:"prune_removed"`
}

func defaultConfig() *Config {
	return &Config{
		Port:             constants.DefaultPort,
		DBPath:           constants.DefaultDBPath,
		LogLevel:         "info",
		LogFormat:        "text",
		WriteMode:        constants.WriteModeOnConflict,
		SyncInterval:     constants.DefaultSyncInterval,
		ProviderTimeout:  constants.DefaultProviderTimeout,
		ProviderRetry:    constants.DefaultRetryBase,
		ProviderRate:     constants.DefaultProviderRate,
		ChunkSize:        constants.DefaultChunkSize,
		WorkerPoolSize:   constants.DefaultWorkerPoolSize,
		ProviderRetries:  constants.DefaultProviderRetries,
		TriggerRateLimit: constants.DefaultTriggerRateLimit,
		PruneRemoved:     true,
	}
}

// envKeys maps environment variables to config keys. Anything else in the
// environment is ignored.
var envKeys = map[string]string{
	"PORT":                "port",
	"DB_PATH":             "db_path",
	"LOG_LEVEL":           "log_level",
	"LOG_FORMAT":          "log_format",
	"CRON_SECRET":         "cron_secret",
	"WRITE_MODE":          "write_mode",
	"SYNC_INTERVAL":       "sync_interval",
	"PROVIDER_TIMEOUT":    "provider_timeout",
	"PROVIDER_RETRY_BASE": "provider_retry_base",
	"PROVIDER_RATE_LIMIT": "provider_rate_limit",
	"CHUNK_SIZE":          "chunk_size",
	"WORKER_POOL_SIZE":    "worker_pool_size",
	"PROVIDER_RETRIES":    "provider_retries",
	"TRIGGER_RATE_LIMIT":  "trigger_rate_limit",
	"PRUNE_REMOVED":       "prune_removed",
}

func envTransform(key string) string {
	return envKeys[key]
}

// Load loads configuration from defaults, then the file named by CONFIG_PATH,
// then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.WriteMode != constants.WriteModeOnConflict && c.WriteMode != constants.WriteModeCheckThenWrite {
		errors = append(errors, fmt.Sprintf("WRITE_MODE must be one of: %s, %s, got: %s",
			constants.WriteModeOnConflict, constants.WriteModeCheckThenWrite, c.WriteMode))
	}

	if c.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("CHUNK_SIZE must be positive, got: %d", c.ChunkSize))
	}
	if c.WorkerPoolSize < 1 {
		errors = append(errors, fmt.Sprintf("WORKER_POOL_SIZE must be positive, got: %d", c.WorkerPoolSize))
	}
	if c.ProviderRetries < 0 {
		errors = append(errors, fmt.Sprintf("PROVIDER_RETRIES cannot be negative, got: %d", c.ProviderRetries))
	}
	if c.ProviderTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("PROVIDER_TIMEOUT must be positive, got: %s", c.ProviderTimeout))
	}
	if c.ProviderRetry < 0 {
		errors = append(errors, fmt.Sprintf("PROVIDER_RETRY_BASE cannot be negative, got: %s", c.ProviderRetry))
	}
	if c.ProviderRate < 0 {
		errors = append(errors, fmt.Sprintf("PROVIDER_RATE_LIMIT cannot be negative, got: %g", c.ProviderRate))
	}
	if c.SyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("SYNC_INTERVAL cannot be negative, got: %s", c.SyncInterval))
	}
	if c.TriggerRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("TRIGGER_RATE_LIMIT cannot be negative, got: %d", c.TriggerRateLimit))
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ValidateServer runs Validate plus the checks only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CronSecret == "" {
		return fmt.Errorf("configuration validation failed:\n  - CRON_SECRET cannot be empty")
	}
	return nil
}
