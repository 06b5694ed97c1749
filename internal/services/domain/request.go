package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinutesPerTask is the fixed service time assumed per queued request.
const MinutesPerTask = 15

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusConfirmed  RequestStatus = "confirmed"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
	StatusReady      RequestStatus = "ready"
)

// ActiveStatuses are the states counted in an operator's queue length.
var ActiveStatuses = []RequestStatus{StatusPending, StatusConfirmed, StatusInProgress}

// Valid reports whether s is one of the six request states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusReady:
		return true
	default:
		return false
	}
}

// IsActive reports whether s occupies a queue slot.
func (s RequestStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	default:
		return false
	}
}

// QueueDelta is the change to the operator's queue length when a request
// moves from one status to another: -1 when leaving the active set, +1 when
// reopening, 0 within the same category.
func QueueDelta(from, to RequestStatus) int {
	switch {
	case from.IsActive() && !to.IsActive():
		return -1
	case !from.IsActive() && to.IsActive():
		return 1
	default:
		return 0
	}
}

// StatusLabel renders a status for people: uppercased, underscores as spaces.
func StatusLabel(s RequestStatus) string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// StatusMessage is the consumer notification text for a status write.
func StatusMessage(s RequestStatus) string {
	return fmt.Sprintf("Your service request status is now %s", StatusLabel(s))
}

// EstimatedWait returns the wait estimate for a queue position.
func EstimatedWait(position, minutesPerTask int) int {
	return position * minutesPerTask
}

// Request is the durable booking produced by a completed session.
type Request struct {
	ID                   uuid.UUID
	SessionID            uuid.UUID
	BusinessID           uuid.UUID
	ConsumerID           uuid.UUID
	OperatorID           uuid.UUID
	Answers              []Response
	QueuePosition        int
	EstimatedWaitMinutes int
	Status               RequestStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
