// Package service implements the service booking engine: intake sessions,
// operator assignment with queue reservation, and the request lifecycle.
package service

import (
	"context"
	"time"

	"marketplace_backend/internal/businesses"
	"marketplace_backend/internal/events"
	scriptdomain "marketplace_backend/internal/scripts/domain"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/internal/services/repository"
	"marketplace_backend/internal/services/transport"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

// NotificationKindServiceUpdate is the notification kind for booking updates.
const NotificationKindServiceUpdate = "service_update"

// ScriptSource provides the current script and frozen versions.
type ScriptSource interface {
	GetScript(ctx context.Context, businessID uuid.UUID) (scriptdomain.Script, error)
	GetSnapshot(ctx context.Context, businessID uuid.UUID, version int) (scriptdomain.Snapshot, error)
}

// RosterEntry is an operator as seen by assignment.
type RosterEntry struct {
	OperatorID  uuid.UUID
	Available   bool
	QueueLength int
}

// OperatorRoster lists a business roster in roster order.
type OperatorRoster interface {
	Roster(ctx context.Context, businessID uuid.UUID) ([]RosterEntry, error)
}

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, kind, message string, relatedID *uuid.UUID) error
}

// ExpiryScheduler arranges for an idle-session check at runAt.
type ExpiryScheduler interface {
	ScheduleSessionExpiry(ctx context.Context, sessionID uuid.UUID, runAt time.Time) error
}

// Service provides the booking engine.
type Service struct {
	repo        repository.Repository
	scripts     ScriptSource
	businesses  businesses.Reader
	roster      OperatorRoster
	bus         events.Bus
	log         *logger.Logger
	notifier    Notifier
	expiry      ExpiryScheduler
	idleTimeout time.Duration
	now         func() time.Time
}

// New creates the booking service.
func New(repo repository.Repository, scripts ScriptSource, biz businesses.Reader, roster OperatorRoster, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		scripts:    scripts,
		businesses: biz,
		roster:     roster,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// SetNotifier injects the consumer notification sink.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetExpiryScheduler injects the idle-session scheduler and timeout.
func (s *Service) SetExpiryScheduler(e ExpiryScheduler, idleTimeout time.Duration) {
	s.expiry = e
	s.idleTimeout = idleTimeout
}

// IdleTimeout returns the configured idle-session timeout.
func (s *Service) IdleTimeout() time.Duration {
	return s.idleTimeout
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func toStepView(step scriptdomain.Step) transport.StepView {
	options := make([]transport.OptionView, 0, len(step.Options))
	for _, opt := range step.Options {
		options = append(options, transport.OptionView{Label: opt.Label, NextStepID: opt.NextStepID})
	}
	return transport.StepView{
		StepID:   step.ID,
		Type:     string(step.Kind),
		Question: step.Prompt,
		Options:  options,
		Required: step.Required,
	}
}

func toSummaryView(responses []domain.Response) transport.StepView {
	return transport.StepView{
		Type:      domain.ReviewSummaryKind,
		Question:  domain.ReviewSummaryPrompt,
		Responses: toResponseViews(responses),
	}
}

func toResponseViews(responses []domain.Response) []transport.ResponseView {
	views := make([]transport.ResponseView, 0, len(responses))
	for _, r := range responses {
		views = append(views, transport.ResponseView{StepID: r.StepID, Question: r.Question, Answer: r.Answer, Type: r.Kind})
	}
	return views
}

func toSessionResponse(s domain.Session) transport.SessionResponse {
	return transport.SessionResponse{
		ID:                   s.ID,
		BusinessID:           s.BusinessID,
		OperatorID:           s.OperatorID,
		ScriptVersion:        s.ScriptVersion,
		CurrentStep:          s.CurrentStep,
		AwaitingConfirmation: s.AwaitingConfirmation,
		Responses:            toResponseViews(s.Responses),
		Status:               string(s.Status),
		CreatedAt:            s.CreatedAt,
		LastActiveAt:         s.LastActiveAt,
	}
}

func toRequestResponse(r domain.Request) transport.RequestResponse {
	return transport.RequestResponse{
		ID:                r.ID,
		SessionID:         r.SessionID,
		BusinessID:        r.BusinessID,
		ConsumerID:        r.ConsumerID,
		OperatorID:        r.OperatorID,
		Answers:           toResponseViews(r.Answers),
		QueuePosition:     r.QueuePosition,
		EstimatedWaitTime: r.EstimatedWaitMinutes,
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func toRequestList(items []domain.Request) transport.RequestListResponse {
	out := make([]transport.RequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toRequestResponse(item))
	}
	return transport.RequestListResponse{Items: out, Total: len(out)}
}
