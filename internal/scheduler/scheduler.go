// Package scheduler triggers a full sync run on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/syncer"
)

type AllRunner interface {
	RunAll(ctx context.Context) ([]domain.Outcome, error)
}

// Scheduler is a suture service. An interval of zero disables it.
type Scheduler struct {
	runner   AllRunner
	logger   *logger.Logger
	interval time.Duration
}

func New(runner AllRunner, interval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{runner: runner, interval: interval, logger: log.WithComponent("scheduler")}
}

func (s *Scheduler) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Scheduled sync disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info("Scheduled sync enabled", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	outcomes, err := s.runner.RunAll(ctx)
	switch {
	case errors.Is(err, syncer.ErrRunInProgress):
		s.logger.Info("Skipping scheduled sync, a run is already active")
	case err != nil:
		s.logger.Error("Scheduled sync failed", "error", err)
	default:
		failed := 0
		for _, o := range outcomes {
			if !o.Success {
				failed++
			}
		}
		s.logger.Info("Scheduled sync finished", "subscriptions", len(outcomes), "failed", failed)
	}
}

func (s *Scheduler) String() string {
	return "sync-scheduler"
}
