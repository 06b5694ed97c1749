package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type expirerFunc func(context.Context, uuid.UUID) (bool, error)

func (f expirerFunc) ExpireIdleSession(ctx context.Context, id uuid.UUID) (bool, error) {
	return f(ctx, id)
}

func TestSessionExpireTaskRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	task, err := NewSessionExpireTask(SessionExpirePayload{SessionID: sessionID.String()})
	if err != nil {
		t.Fatalf("NewSessionExpireTask returned error: %v", err)
	}
	if task.Type() != TaskSessionExpire {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	payload, err := ParseSessionExpirePayload(task)
	if err != nil {
		t.Fatalf("ParseSessionExpirePayload returned error: %v", err)
	}
	if payload.SessionID != sessionID.String() {
		t.Fatalf("unexpected session id %q", payload.SessionID)
	}
	if got := sessionExpireTaskID(sessionID); got != "booking.session.expire:"+sessionID.String() {
		t.Fatalf("unexpected task id %q", got)
	}
}

func TestHandleSessionExpireCallsExpirer(t *testing.T) {
	sessionID := uuid.New()
	var seen uuid.UUID
	w := &Worker{
		expirer: expirerFunc(func(_ context.Context, id uuid.UUID) (bool, error) {
			seen = id
			return true, nil
		}),
		log: logger.Discard(),
	}

	task, _ := NewSessionExpireTask(SessionExpirePayload{SessionID: sessionID.String()})
	if err := w.handleSessionExpire(context.Background(), task); err != nil {
		t.Fatalf("handleSessionExpire returned error: %v", err)
	}
	if seen != sessionID {
		t.Fatalf("expected expirer called with %s, got %s", sessionID, seen)
	}
}

func TestHandleSessionExpireSkipsRetryOnBadPayload(t *testing.T) {
	w := &Worker{
		expirer: expirerFunc(func(context.Context, uuid.UUID) (bool, error) {
			t.Fatal("expirer must not be called")
			return false, nil
		}),
		log: logger.Discard(),
	}

	task := asynq.NewTask(TaskSessionExpire, []byte(`{"sessionId":"nope"}`))
	if err := w.handleSessionExpire(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) SweepIdleSessions(context.Context) (int64, error) {
	s.calls.Add(1)
	return 2, nil
}

func TestIdleSessionSweepRunsImmediatelyAndStops(t *testing.T) {
	sweeper := &countingSweeper{}
	sweep := NewIdleSessionSweep(sweeper, logger.Discard(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweep.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweep did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
