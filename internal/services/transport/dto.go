package transport

import (
	"time"

	"github.com/google/uuid"
)

// StartSessionRequest begins an intake flow with a business.
type StartSessionRequest struct {
	BusinessID uuid.UUID  `json:"businessId" validate:"required"`
	OperatorID *uuid.UUID `json:"operatorId,omitempty"`
}

// SubmitAnswerRequest answers the current step. Confirm is equivalent to
// submitting the confirmation sentinel as the answer.
type SubmitAnswerRequest struct {
	SessionID uuid.UUID `json:"sessionId" validate:"required"`
	Answer    string    `json:"answer" validate:"max=4000"`
	Confirm   bool      `json:"confirm"`
}

// UploadAnswerRequest carries the multipart form fields of a file answer.
type UploadAnswerRequest struct {
	SessionID string `form:"sessionId" validate:"required,uuid"`
}

// UpdateStatusRequest moves a service request to a new status.
type UpdateStatusRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
	Status  string    `json:"status" validate:"required"`
}

// OptionView is a selectable answer.
type OptionView struct {
	Label      string  `json:"label"`
	NextStepID *string `json:"nextStepId"`
}

// ResponseView is one recorded answer.
type ResponseView struct {
	StepID   string `json:"stepId"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type,omitempty"`
}

// StepView is either a script step or the synthetic review summary, in
// which case Type is "review_summary" and Responses holds the answers so far.
type StepView struct {
	StepID    string         `json:"stepId,omitempty"`
	Type      string         `json:"type"`
	Question  string         `json:"question"`
	Options   []OptionView   `json:"options,omitempty"`
	Required  bool           `json:"required"`
	Responses []ResponseView `json:"responses,omitempty"`
}

// StartSessionResponse returns the new session and its first step.
type StartSessionResponse struct {
	SessionID uuid.UUID `json:"sessionId"`
	Step      StepView  `json:"step"`
}

// SubmitResponse is the engine's answer to a submission: the next step, or
// completion with the created request.
type SubmitResponse struct {
	Step      *StepView  `json:"step,omitempty"`
	Completed bool       `json:"completed,omitempty"`
	RequestID *uuid.UUID `json:"requestId,omitempty"`
	FilePath  string     `json:"filePath,omitempty"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID                   uuid.UUID      `json:"id"`
	BusinessID           uuid.UUID      `json:"businessId"`
	OperatorID           *uuid.UUID     `json:"operatorId,omitempty"`
	ScriptVersion        int            `json:"scriptVersion"`
	CurrentStep          string         `json:"currentStep"`
	AwaitingConfirmation bool           `json:"awaitingConfirmation"`
	Responses            []ResponseView `json:"responses"`
	Status               string         `json:"status"`
	CreatedAt            time.Time      `json:"createdAt"`
	LastActiveAt         time.Time      `json:"lastActiveAt"`
}

// RequestResponse represents a service request in API responses.
type RequestResponse struct {
	ID                uuid.UUID      `json:"id"`
	SessionID         uuid.UUID      `json:"sessionId"`
	BusinessID        uuid.UUID      `json:"businessId"`
	ConsumerID        uuid.UUID      `json:"consumerId"`
	OperatorID        uuid.UUID      `json:"operatorId"`
	Answers           []ResponseView `json:"answers"`
	QueuePosition     int            `json:"queuePosition"`
	EstimatedWaitTime int            `json:"estimatedWaitTime"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// RequestListResponse wraps a list of service requests.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
	Total int               `json:"total"`
}
