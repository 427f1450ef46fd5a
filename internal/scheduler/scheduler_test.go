package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/syncer"
)

type countingRunner struct {
	err   error
	calls atomic.Int32
}

func (r *countingRunner) RunAll(ctx context.Context) ([]domain.Outcome, error) {
	r.calls.Add(1)
	return []domain.Outcome{{SubscriptionID: 1, Success: true}}, r.err
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 10*time.Millisecond, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for runner.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if runner.calls.Load() < 2 {
		t.Errorf("Expected at least 2 runs, got %d", runner.calls.Load())
	}
}

func TestScheduler_SkipsWhenBusy(t *testing.T) {
	runner := &countingRunner{err: syncer.ErrRunInProgress}
	s := New(runner, time.Hour, logger.Discard())

	s.tick(context.Background())
	if runner.calls.Load() != 1 {
		t.Errorf("Expected 1 call, got %d", runner.calls.Load())
	}
}

func TestScheduler_Disabled(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 0, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := s.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if runner.calls.Load() != 0 {
		t.Errorf("Expected no runs when disabled, got %d", runner.calls.Load())
	}
}
