package syncer

import (
	"context"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

// Observer receives progress events. Calls happen on the orchestrator's
// goroutine, in stage order.
type Observer interface {
	OnProgress(ctx context.Context, ev domain.ProgressEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev domain.ProgressEvent)

func (f ObserverFunc) OnProgress(ctx context.Context, ev domain.ProgressEvent) {
	f(ctx, ev)
}

// Observers fans an event out to several observers.
type Observers []Observer

func (os Observers) OnProgress(ctx context.Context, ev domain.ProgressEvent) {
	for _, o := range os {
		if o != nil {
			o.OnProgress(ctx, ev)
		}
	}
}
