package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/metrics"
)

var ErrRunInProgress = errors.New("a sync run is already in progress")

type SubscriptionSource interface {
	ListSubscriptions(ctx context.Context) ([]*domain.Subscription, error)
	GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error)
}

// SubscriptionSyncer runs one subscription through every stage.
type SubscriptionSyncer interface {
	Run(ctx context.Context, sub *domain.Subscription) (*domain.SyncReport, error)
}

// Runner syncs subscriptions one at a time. A failure in one subscription
// never stops the others.
type Runner struct {
	subs   SubscriptionSource
	syncer SubscriptionSyncer
	logger *logger.Logger
	mu     sync.Mutex
}

func NewRunner(subs SubscriptionSource, syncer SubscriptionSyncer, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Default()
	}
	return &Runner{
		subs:   subs,
		syncer: syncer,
		logger: log.WithComponent("runner"),
	}
}

// RunAll syncs every stored subscription sequentially. It returns
// ErrRunInProgress when another invocation holds the runner.
func (r *Runner) RunAll(ctx context.Context) ([]domain.Outcome, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()
	metrics.RunInProgress.Set(1)
	defer metrics.RunInProgress.Set(0)

	subs, err := r.subs.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	start := time.Now()
	r.logger.Info("Sync run started", "subscriptions", len(subs))

	outcomes := make([]domain.Outcome, 0, len(subs))
	failed := 0
	for _, sub := range subs {
		out := r.runOne(ctx, sub)
		if !out.Success {
			failed++
		}
		outcomes = append(outcomes, out)
	}

	r.logger.Info("Sync run finished",
		"subscriptions", len(subs),
		"failed", failed,
		"duration", time.Since(start))
	return outcomes, nil
}

// RunOne syncs a single subscription by id.
func (r *Runner) RunOne(ctx context.Context, id int64) (domain.Outcome, error) {
	if !r.mu.TryLock() {
		return domain.Outcome{}, ErrRunInProgress
	}
	defer r.mu.Unlock()
	metrics.RunInProgress.Set(1)
	defer metrics.RunInProgress.Set(0)

	sub, err := r.subs.GetSubscription(ctx, id)
	if err != nil {
		return domain.Outcome{}, err
	}
	return r.runOne(ctx, sub), nil
}

func (r *Runner) runOne(ctx context.Context, sub *domain.Subscription) (out domain.Outcome) {
	out.SubscriptionID = sub.ID
	log := r.logger.WithSubscription(sub.ID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Subscription sync panicked", "panic", rec)
			out.Success = false
			out.Error = fmt.Sprintf("panic: %v", rec)
		}
	}()

	rep, err := r.syncer.Run(ctx, sub)
	out.Report = rep
	if err != nil {
		log.Warn("Subscription sync failed", "error", err)
		out.Error = err.Error()
		return out
	}
	out.Success = rep != nil && rep.Success
	return out
}
