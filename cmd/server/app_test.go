package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesargomez89/catalogsync/internal/catalog"
	"github.com/cesargomez89/catalogsync/internal/config"
	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:          filepath.Join(t.TempDir(), "test.db"),
		LogLevel:        "error",
		LogFormat:       "text",
		WriteMode:       constants.WriteModeOnConflict,
		ProviderTimeout: time.Second,
		ProviderRetry:   time.Millisecond,
		ChunkSize:       100,
		WorkerPoolSize:  2,
		PruneRemoved:    true,
	}
}

func TestNewProvider(t *testing.T) {
	cfg := testConfig(t)
	log := logger.Discard()

	if _, err := newProvider(cfg, "ftp", log); err == nil {
		t.Error("Expected error for unknown provider")
	}
	p, err := newProvider(cfg, providerMock, log)
	if err != nil {
		t.Fatalf("Expected mock provider, got %v", err)
	}
	if _, ok := p.(*catalog.MockProvider); !ok {
		t.Errorf("Expected *catalog.MockProvider, got %T", p)
	}
	p, err = newProvider(cfg, providerXtream, log)
	if err != nil {
		t.Fatalf("Expected xtream provider, got %v", err)
	}
	if _, ok := p.(*catalog.XtreamProvider); !ok {
		t.Errorf("Expected *catalog.XtreamProvider, got %T", p)
	}
}

func TestApplication_SyncsDemoCatalog(t *testing.T) {
	app, err := newApplication(testConfig(t), providerMock)
	if err != nil {
		t.Fatalf("newApplication failed: %v", err)
	}
	defer app.Close()

	ctx := context.Background()
	sub := &domain.Subscription{Host: "http://demo.example", Username: "u", Password: "p"}
	if err := app.db.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}

	outcomes, err := app.runner.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Success {
		t.Fatalf("Expected one successful outcome, got %+v", outcomes)
	}

	run, err := app.db.LatestRun(ctx, sub.ID)
	if err != nil || run == nil {
		t.Fatalf("Expected a recorded run, got %v, %v", run, err)
	}
	if run.Status != domain.RunStatusCompleted {
		t.Errorf("Expected completed run, got %s", run.Status)
	}
	if ev, ok := app.hub.Latest(sub.ID); !ok || ev.Kind != domain.EventFinished {
		t.Errorf("Expected finished event in hub, got %+v", ev)
	}
}
