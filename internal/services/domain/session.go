// Package domain models intake sessions, the service requests they produce
// and the queue accounting rules that connect them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an intake session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// ConfirmationSentinel is the out-of-band answer that confirms the review
// summary. It is never recorded as a response.
const ConfirmationSentinel = "CONFIRMED_SUMMARY"

// ReviewSummaryKind tags the synthetic summary step.
const ReviewSummaryKind = "review_summary"

// ReviewSummaryPrompt is shown above the collected answers.
const ReviewSummaryPrompt = "Please review your details before submitting:"

// ResponseKindFile tags answers that hold a stored file path.
const ResponseKindFile = "file"

// Response is one recorded answer.
type Response struct {
	StepID   string `json:"stepId"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Kind     string `json:"type,omitempty"`
}

// Session is one consumer's walk through a frozen script version.
type Session struct {
	ID            uuid.UUID
	BusinessID    uuid.UUID
	ConsumerID    uuid.UUID
	OperatorID    *uuid.UUID
	ScriptVersion int
	CurrentStep   string
	// AwaitingConfirmation is set once the walk ran out of steps and the
	// review summary was shown. Only the confirmation sentinel moves on.
	AwaitingConfirmation bool
	Responses            []Response
	Status               SessionStatus
	CreatedAt            time.Time
	LastActiveAt         time.Time
}

// IsOpen reports whether the session still accepts answers.
func (s Session) IsOpen() bool {
	return s.Status == SessionInProgress
}

// OwnedBy reports whether consumerID started the session.
func (s Session) OwnedBy(consumerID uuid.UUID) bool {
	return s.ConsumerID == consumerID
}

// WithResponse returns a copy of the response log with r appended.
func (s Session) WithResponse(r Response) []Response {
	out := make([]Response, 0, len(s.Responses)+1)
	out = append(out, s.Responses...)
	return append(out, r)
}
