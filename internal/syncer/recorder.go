package syncer

import (
	"context"
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
)

type RunStore interface {
	CreateRun(ctx context.Context, run *domain.SyncRun) error
	UpdateRunProgress(ctx context.Context, id string, stage domain.Stage, progress float64) error
	FinishRun(ctx context.Context, id string, status domain.RunStatus, stage domain.Stage, progress float64, errorMsg *string) error
}

// RunRecorder persists run status to sync_runs as progress events arrive.
// Write errors are logged and never affect the sync.
type RunRecorder struct {
	store  RunStore
	logger *logger.Logger
}

func NewRunRecorder(store RunStore, log *logger.Logger) *RunRecorder {
	if log == nil {
		log = logger.Default()
	}
	return &RunRecorder{store: store, logger: log.WithComponent("run_recorder")}
}

func (r *RunRecorder) OnProgress(ctx context.Context, ev domain.ProgressEvent) {
	var err error
	switch ev.Kind {
	case domain.EventStarted:
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		err = r.store.CreateRun(ctx, &domain.SyncRun{
			ID:             ev.RunID,
			SubscriptionID: ev.SubscriptionID,
			Status:         domain.RunStatusRunning,
			Stage:          ev.State,
			CreatedAt:      at,
			UpdatedAt:      at,
		})
	case domain.EventStage:
		err = r.store.UpdateRunProgress(ctx, ev.RunID, ev.State, ev.Progress.Fraction())
	case domain.EventFinished:
		status := domain.RunStatusCompleted
		var msg *string
		if ev.State == domain.StageFailed {
			status = domain.RunStatusFailed
			e := ev.Error
			msg = &e
		}
		// The final status must land even when the run's context is done.
		err = r.store.FinishRun(context.WithoutCancel(ctx), ev.RunID, status, ev.State, ev.Progress.Fraction(), msg)
	}
	if err != nil {
		r.logger.Warn("Failed to record run", "run_id", ev.RunID, "event", ev.Kind, "error", err)
	}
}
