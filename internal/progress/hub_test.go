package progress

import (
	"context"
	"testing"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

func TestHub_Latest(t *testing.T) {
	h := NewHub()
	if _, ok := h.Latest(1); ok {
		t.Error("Expected no event before any progress")
	}

	h.OnProgress(context.Background(), domain.ProgressEvent{SubscriptionID: 1, State: domain.StageChannels})
	h.OnProgress(context.Background(), domain.ProgressEvent{SubscriptionID: 1, State: domain.StageMovies})

	ev, ok := h.Latest(1)
	if !ok {
		t.Fatal("Expected latest event")
	}
	if ev.State != domain.StageMovies {
		t.Errorf("Expected MOVIES, got %s", ev.State)
	}
	if _, ok := h.Latest(2); ok {
		t.Error("Expected no event for another subscription")
	}
}

func TestHub_Subscribe(t *testing.T) {
	h := NewHub()
	h.OnProgress(context.Background(), domain.ProgressEvent{SubscriptionID: 1, Kind: domain.EventStarted})

	ch, cancel := h.Subscribe(1)
	other, cancelOther := h.Subscribe(2)
	defer cancelOther()

	first := <-ch
	if first.Kind != domain.EventStarted {
		t.Errorf("Expected replayed started event, got %s", first.Kind)
	}

	h.OnProgress(context.Background(), domain.ProgressEvent{SubscriptionID: 1, Kind: domain.EventStage, State: domain.StageChannelCategories})
	next := <-ch
	if next.State != domain.StageChannelCategories {
		t.Errorf("Expected CHANNEL_CATEGORIES, got %s", next.State)
	}

	select {
	case ev := <-other:
		t.Errorf("Expected no event for subscription 2, got %+v", ev)
	default:
	}

	if h.Subscribers(1) != 1 {
		t.Errorf("Expected 1 subscriber, got %d", h.Subscribers(1))
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("Expected channel closed after cancel")
	}
	if h.Subscribers(1) != 0 {
		t.Errorf("Expected 0 subscribers, got %d", h.Subscribers(1))
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(1)
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		h.OnProgress(context.Background(), domain.ProgressEvent{SubscriptionID: 1})
	}
}
