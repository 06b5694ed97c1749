package notification

import (
	"context"
	"strings"
	"testing"

	"marketplace_backend/internal/events"
	"marketplace_backend/internal/notification/inapp"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingStore struct {
	created []inapp.CreateParams
}

func (s *recordingStore) Create(_ context.Context, p inapp.CreateParams) (inapp.Notification, error) {
	s.created = append(s.created, p)
	return inapp.Notification{ID: uuid.New(), RecipientID: p.RecipientID, Kind: p.Kind, Message: p.Message}, nil
}

func (s *recordingStore) List(context.Context, uuid.UUID, int, int) ([]inapp.Notification, int, error) {
	return nil, 0, nil
}

func (s *recordingStore) CountUnread(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (s *recordingStore) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *recordingStore) MarkAllRead(context.Context, uuid.UUID) error { return nil }

func TestServiceRequestCreatedNotifiesOperator(t *testing.T) {
	store := &recordingStore{}
	m := NewWithStore(store, logger.Discard())
	bus := events.NewInMemoryBus(logger.Discard())
	m.RegisterHandlers(bus)

	operatorID := uuid.New()
	requestID := uuid.New()
	err := bus.PublishSync(context.Background(), events.ServiceRequestCreated{
		BaseEvent:            events.NewBaseEvent(),
		RequestID:            requestID,
		OperatorID:           operatorID,
		QueuePosition:        3,
		EstimatedWaitMinutes: 45,
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.created))
	}
	got := store.created[0]
	if got.RecipientID != operatorID || got.Kind != inapp.KindServiceUpdate {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.RelatedID == nil || *got.RelatedID != requestID {
		t.Fatalf("expected related request id, got %v", got.RelatedID)
	}
	if !strings.Contains(got.Message, "position 3") {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestNotifyDelegatesToInbox(t *testing.T) {
	store := &recordingStore{}
	m := NewWithStore(store, logger.Discard())

	if err := m.Notify(context.Background(), uuid.New(), inapp.KindServiceUpdate, "Your service request status is now READY", nil); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.created))
	}
}
