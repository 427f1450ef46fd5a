package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cesargomez89/catalogsync/internal/constants"
)

// clearEnv unsets every mapped variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{ConfigPathEnvVar}
	for key := range envKeys {
		keys = append(keys, key)
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func validConfig() Config {
	cfg := *defaultConfig()
	cfg.CronSecret = "secret"
	return cfg
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Port)
	}
	if cfg.DBPath != constants.DefaultDBPath {
		t.Errorf("Expected DBPath to be %s, got %s", constants.DefaultDBPath, cfg.DBPath)
	}
	if cfg.ChunkSize != constants.DefaultChunkSize {
		t.Errorf("Expected ChunkSize to be %d, got %d", constants.DefaultChunkSize, cfg.ChunkSize)
	}
	if cfg.SyncInterval != constants.DefaultSyncInterval {
		t.Errorf("Expected SyncInterval to be %s, got %s", constants.DefaultSyncInterval, cfg.SyncInterval)
	}
	if cfg.WriteMode != constants.WriteModeOnConflict {
		t.Errorf("Expected WriteMode to be %s, got %s", constants.WriteModeOnConflict, cfg.WriteMode)
	}
	if !cfg.PruneRemoved {
		t.Error("Expected PruneRemoved to default to true")
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("CHUNK_SIZE", "250")
	t.Setenv("SYNC_INTERVAL", "6h")
	t.Setenv("PRUNE_REMOVED", "false")
	t.Setenv("PROVIDER_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Port)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected DBPath to be /tmp/test.db, got %s", cfg.DBPath)
	}
	if cfg.CronSecret != "s3cret" {
		t.Errorf("Expected CronSecret to be s3cret, got %s", cfg.CronSecret)
	}
	if cfg.ChunkSize != 250 {
		t.Errorf("Expected ChunkSize to be 250, got %d", cfg.ChunkSize)
	}
	if cfg.SyncInterval != 6*time.Hour {
		t.Errorf("Expected SyncInterval to be 6h, got %s", cfg.SyncInterval)
	}
	if cfg.PruneRemoved {
		t.Error("Expected PruneRemoved to be false")
	}
	if cfg.ProviderRate != 2.5 {
		t.Errorf("Expected ProviderRate to be 2.5, got %g", cfg.ProviderRate)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunk_size: 100\nworker_pool_size: 5\nwrite_mode: check_then_insert\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("WORKER_POOL_SIZE", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ChunkSize != 100 {
		t.Errorf("Expected ChunkSize from file to be 100, got %d", cfg.ChunkSize)
	}
	if cfg.WorkerPoolSize != 2 {
		t.Errorf("Expected env to override WorkerPoolSize to 2, got %d", cfg.WorkerPoolSize)
	}
	if cfg.WriteMode != constants.WriteModeCheckThenWrite {
		t.Errorf("Expected WriteMode %s, got %s", constants.WriteModeCheckThenWrite, cfg.WriteMode)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "invalid port - not a number", mutate: func(c *Config) { c.Port = "abc" }, wantErr: true},
		{name: "invalid port - out of range", mutate: func(c *Config) { c.Port = "99999" }, wantErr: true},
		{name: "empty port", mutate: func(c *Config) { c.Port = "" }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{name: "missing cron secret", mutate: func(c *Config) { c.CronSecret = "" }},
		{name: "unknown write mode", mutate: func(c *Config) { c.WriteMode = "upsert" }, wantErr: true},
		{name: "zero chunk size", mutate: func(c *Config) { c.ChunkSize = 0 }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.WorkerPoolSize = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.ProviderRetries = -1 }, wantErr: true},
		{name: "zero retries", mutate: func(c *Config) { c.ProviderRetries = 0 }},
		{name: "zero provider timeout", mutate: func(c *Config) { c.ProviderTimeout = 0 }, wantErr: true},
		{name: "scheduler disabled", mutate: func(c *Config) { c.SyncInterval = 0 }},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: true},
		{name: "invalid log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = ""
	cfg.DBPath = ""
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"PORT", "DB_PATH", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
}

func TestValidateServer(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("Expected valid server config, got %v", err)
	}

	cfg.CronSecret = ""
	err := cfg.ValidateServer()
	if err == nil || !strings.Contains(err.Error(), "CRON_SECRET") {
		t.Errorf("Expected CRON_SECRET error, got %v", err)
	}
}
