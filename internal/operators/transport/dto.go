package transport

import "github.com/google/uuid"

// SetAvailabilityRequest toggles the acting operator's availability.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// OperatorResponse represents a roster entry in API responses.
type OperatorResponse struct {
	ID          uuid.UUID `json:"id"`
	BusinessID  uuid.UUID `json:"businessId"`
	Name        string    `json:"name"`
	IsAvailable bool      `json:"isAvailable"`
	QueueLength int       `json:"queueLength"`
}

// OperatorListResponse wraps a business roster.
type OperatorListResponse struct {
	Items []OperatorResponse `json:"items"`
	Total int                `json:"total"`
}

// ReconcileResponse reports how many counters were corrected.
type ReconcileResponse struct {
	Corrected int64 `json:"corrected"`
}
