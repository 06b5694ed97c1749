package repository

import (
	"context"
	"errors"
	"time"

	"marketplace_backend/internal/services/domain"

	"github.com/google/uuid"
)

// ErrSessionNotOpen is returned when a session write loses its status guard
// because the session already left in_progress.
var ErrSessionNotOpen = errors.New("service session is no longer in progress")

// ErrStatusChanged is returned when a request's status moved between read and
// write.
var ErrStatusChanged = errors.New("service request status changed concurrently")

// CreateSessionParams contains parameters for starting a session.
type CreateSessionParams struct {
	BusinessID    uuid.UUID
	ConsumerID    uuid.UUID
	OperatorID    *uuid.UUID
	ScriptVersion int
	CurrentStep   string
}

// AdvanceSessionParams records an answer and moves the session pointer.
type AdvanceSessionParams struct {
	SessionID            uuid.UUID
	Responses            []domain.Response
	CurrentStep          string
	AwaitingConfirmation bool
}

// BookParams converts an open session into a service request.
type BookParams struct {
	SessionID      uuid.UUID
	BusinessID     uuid.UUID
	ConsumerID     uuid.UUID
	OperatorID     uuid.UUID
	Responses      []domain.Response
	MinutesPerTask int
}

// BookResult is the created request. Reserved is false when the operator's
// queue counter could not be found and the position fell back to 1.
type BookResult struct {
	Request  domain.Request
	Reserved bool
}

// TransitionParams moves a request from one status to another and applies
// the queue delta to its operator.
type TransitionParams struct {
	RequestID  uuid.UUID
	OperatorID uuid.UUID
	From       domain.RequestStatus
	To         domain.RequestStatus
	QueueDelta int
}

// TransitionResult is the updated request. QueueAdjusted is false when a
// non-zero delta found no counter to update.
type TransitionResult struct {
	Request       domain.Request
	QueueAdjusted bool
}

// SessionReader provides read operations for sessions.
type SessionReader interface {
	GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error)
}

// SessionWriter provides write operations for sessions.
type SessionWriter interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (domain.Session, error)
	AdvanceSession(ctx context.Context, params AdvanceSessionParams) (domain.Session, error)
	AbandonIdleSession(ctx context.Context, id uuid.UUID, idleBefore time.Time) (bool, error)
	AbandonIdleSessions(ctx context.Context, idleBefore time.Time, limit int) (int64, error)
}

// RequestReader provides read operations for service requests.
type RequestReader interface {
	GetRequest(ctx context.Context, id uuid.UUID) (domain.Request, error)
	GetRequestBySession(ctx context.Context, sessionID uuid.UUID) (domain.Request, error)
	ListByOperator(ctx context.Context, operatorID uuid.UUID) ([]domain.Request, error)
	ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]domain.Request, error)
}

// RequestWriter provides the transactional booking and status operations.
type RequestWriter interface {
	Book(ctx context.Context, params BookParams) (BookResult, error)
	TransitionStatus(ctx context.Context, params TransitionParams) (TransitionResult, error)
}

// Repository combines all service booking repository operations.
type Repository interface {
	SessionReader
	SessionWriter
	RequestReader
	RequestWriter
}
