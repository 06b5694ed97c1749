package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace_backend/platform/logger"
)

type pingEvent struct{ BaseEvent }

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncRunsAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())

	calls := 0
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishAsyncDelivers(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	done := make(chan struct{})
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	cancel()
	<-done
}

func TestBaseEventAtNormalizesToUTC(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	got := BaseEventAt(at).OccurredAt()
	if !got.Equal(at) || got.Location() != time.UTC {
		t.Fatalf("expected %v in UTC, got %v", at, got)
	}
}
