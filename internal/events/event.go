// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"marketplace_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent = events.NewBaseEvent
	BaseEventAt  = events.BaseEventAt
)

// =============================================================================
// Service Booking Domain Events
// =============================================================================

// ServiceSessionStarted is published when a consumer begins an intake session.
type ServiceSessionStarted struct {
	BaseEvent
	SessionID     uuid.UUID  `json:"sessionId"`
	BusinessID    uuid.UUID  `json:"businessId"`
	ConsumerID    uuid.UUID  `json:"consumerId"`
	OperatorID    *uuid.UUID `json:"operatorId,omitempty"`
	ScriptVersion int        `json:"scriptVersion"`
}

func (e ServiceSessionStarted) EventName() string { return "booking.session.started" }

// ServiceRequestCreated is published once a confirmed session has been converted
// into a service request and a queue slot has been reserved.
type ServiceRequestCreated struct {
	BaseEvent
	RequestID            uuid.UUID `json:"requestId"`
	SessionID            uuid.UUID `json:"sessionId"`
	BusinessID           uuid.UUID `json:"businessId"`
	ConsumerID           uuid.UUID `json:"consumerId"`
	OperatorID           uuid.UUID `json:"operatorId"`
	QueuePosition        int       `json:"queuePosition"`
	EstimatedWaitMinutes int       `json:"estimatedWaitMinutes"`
}

func (e ServiceRequestCreated) EventName() string { return "booking.request.created" }

// ServiceRequestStatusChanged is published after a status write has committed.
type ServiceRequestStatusChanged struct {
	BaseEvent
	RequestID  uuid.UUID `json:"requestId"`
	OperatorID uuid.UUID `json:"operatorId"`
	ConsumerID uuid.UUID `json:"consumerId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
	QueueDelta int       `json:"queueDelta"`
}

func (e ServiceRequestStatusChanged) EventName() string { return "booking.request.status_changed" }
