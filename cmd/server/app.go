package main

import (
	"fmt"

	"github.com/cesargomez89/catalogsync/internal/catalog"
	"github.com/cesargomez89/catalogsync/internal/config"
	"github.com/cesargomez89/catalogsync/internal/httpclient"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/progress"
	"github.com/cesargomez89/catalogsync/internal/store"
	"github.com/cesargomez89/catalogsync/internal/syncer"
)

const (
	providerXtream = "xtream"
	providerMock   = "mock"
)

// application holds the wired components shared by every subcommand.
type application struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *store.DB
	hub    *progress.Hub
	runner *syncer.Runner
}

func loadConfig(server bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	validate := cfg.Validate
	if server {
		validate = cfg.ValidateServer
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApplication(cfg *config.Config, providerKind string) (*application, error) {
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := store.NewSQLiteDB(cfg.DBPath,
		store.WithWriteMode(cfg.WriteMode),
		store.WithWriters(cfg.WorkerPoolSize))
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	appLogger.Debug("Database opened", "path", cfg.DBPath, "write_mode", db.WriteMode())

	provider, err := newProvider(cfg, providerKind, appLogger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hub := progress.NewHub()
	observers := syncer.Observers{syncer.NewRunRecorder(db, appLogger), hub}
	orch := syncer.NewOrchestrator(provider, db, syncer.Options{
		ChunkSize: cfg.ChunkSize,
		Workers:   cfg.WorkerPoolSize,
		Prune:     cfg.PruneRemoved,
	}, observers, appLogger)

	return &application{
		cfg:    cfg,
		logger: appLogger,
		db:     db,
		hub:    hub,
		runner: syncer.NewRunner(db, orch, appLogger),
	}, nil
}

func newProvider(cfg *config.Config, kind string, log *logger.Logger) (catalog.Provider, error) {
	switch kind {
	case providerXtream:
		client := httpclient.NewClient(nil, httpclient.Config{
			Timeout:       cfg.ProviderTimeout,
			RetryBase:     cfg.ProviderRetry,
			Retries:       cfg.ProviderRetries,
			RatePerSecond: cfg.ProviderRate,
		})
		return catalog.NewXtreamProvider(client, catalog.NewBreakers(log), log), nil
	case providerMock:
		log.Warn("Using demo provider, no provider will be contacted")
		return catalog.NewDemoProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", kind, providerXtream, providerMock)
	}
}

func (a *application) Close() error {
	return a.db.Close()
}
