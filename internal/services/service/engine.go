package service

import (
	"context"
	"errors"
	"strings"

	"marketplace_backend/internal/events"
	scriptdomain "marketplace_backend/internal/scripts/domain"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/internal/services/repository"
	"marketplace_backend/internal/services/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgBusinessRequired    = "businessId is required"
	msgRetailNoServices    = "retail businesses do not offer service bookings"
	msgOperatorNotOnRoster = "operator does not belong to this business"
	msgOperatorUnavailable = "operator is not accepting new requests"
	msgNoScript            = "this business has not configured a service script"
	msgNotSessionOwner     = "session belongs to another consumer"
	msgSessionClosed       = "session is no longer accepting answers"
	msgNothingToConfirm    = "there is no summary to confirm yet"
	msgAwaitingConfirm     = "session is waiting for summary confirmation"
	msgUnknownStep         = "session step cannot be resolved in its script"
	msgUnknownNextStep     = "next step cannot be resolved in its script"
	msgFilePathRequired    = "file path is required"
)

// Start opens a session on the first step of the business's current script.
// The script version is frozen on the session so later edits do not affect it.
func (s *Service) Start(ctx context.Context, consumerID uuid.UUID, req transport.StartSessionRequest) (transport.StartSessionResponse, error) {
	if req.BusinessID == uuid.Nil {
		return transport.StartSessionResponse{}, apperr.InvalidInput(msgBusinessRequired)
	}

	biz, err := s.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		return transport.StartSessionResponse{}, err
	}
	if biz.IsRetail() {
		return transport.StartSessionResponse{}, apperr.Forbidden(msgRetailNoServices)
	}

	if req.OperatorID != nil {
		if err := s.checkOperator(ctx, biz.ID, *req.OperatorID); err != nil {
			return transport.StartSessionResponse{}, err
		}
	}

	script, err := s.scripts.GetScript(ctx, biz.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.StartSessionResponse{}, apperr.NoScriptConfigured(msgNoScript)
		}
		return transport.StartSessionResponse{}, err
	}
	if script.IsEmpty() {
		return transport.StartSessionResponse{}, apperr.NoScriptConfigured(msgNoScript)
	}
	first := script.Steps[0]

	session, err := s.repo.CreateSession(ctx, repository.CreateSessionParams{
		BusinessID:    biz.ID,
		ConsumerID:    consumerID,
		OperatorID:    req.OperatorID,
		ScriptVersion: script.Version,
		CurrentStep:   first.ID,
	})
	if err != nil {
		return transport.StartSessionResponse{}, err
	}

	s.scheduleExpiry(ctx, session.ID)
	s.publish(ctx, events.ServiceSessionStarted{
		BaseEvent:     events.BaseEventAt(s.now()),
		SessionID:     session.ID,
		BusinessID:    session.BusinessID,
		ConsumerID:    session.ConsumerID,
		OperatorID:    session.OperatorID,
		ScriptVersion: session.ScriptVersion,
	})
	s.log.BookingEvent("session started",
		"sessionId", session.ID,
		"businessId", session.BusinessID,
		"scriptVersion", session.ScriptVersion,
	)

	return transport.StartSessionResponse{SessionID: session.ID, Step: toStepView(first)}, nil
}

func (s *Service) checkOperator(ctx context.Context, businessID, operatorID uuid.UUID) error {
	roster, err := s.roster.Roster(ctx, businessID)
	if err != nil {
		return err
	}
	for _, entry := range roster {
		if entry.OperatorID != operatorID {
			continue
		}
		if !entry.Available {
			return apperr.OperatorUnavailable(msgOperatorUnavailable)
		}
		return nil
	}
	return apperr.InvalidOperator(msgOperatorNotOnRoster)
}

func (s *Service) scheduleExpiry(ctx context.Context, sessionID uuid.UUID) {
	if s.expiry == nil || s.idleTimeout <= 0 {
		return
	}
	runAt := s.now().Add(s.idleTimeout)
	if err := s.expiry.ScheduleSessionExpiry(ctx, sessionID, runAt); err != nil {
		s.log.Warn("failed to schedule session expiry", "sessionId", sessionID, "error", err)
	}
}

func isConfirmation(answer string, confirm bool) bool {
	return confirm || strings.TrimSpace(answer) == domain.ConfirmationSentinel
}

// Submit records an answer to the current step and advances the session.
// When no step follows, the review summary is returned; confirming it books
// the request. Confirming on a terminal step skips the summary round.
func (s *Service) Submit(ctx context.Context, consumerID uuid.UUID, req transport.SubmitAnswerRequest) (transport.SubmitResponse, error) {
	confirm := isConfirmation(req.Answer, req.Confirm)

	session, err := s.ownedSession(ctx, consumerID, req.SessionID)
	if err != nil {
		return transport.SubmitResponse{}, err
	}
	if !session.IsOpen() {
		if confirm && session.Status == domain.SessionCompleted {
			return s.completedResponse(ctx, session.ID)
		}
		return transport.SubmitResponse{}, apperr.SessionClosed(msgSessionClosed)
	}

	if session.AwaitingConfirmation {
		if !confirm {
			summary := toSummaryView(session.Responses)
			return transport.SubmitResponse{Step: &summary}, nil
		}
		return s.complete(ctx, session, session.Responses)
	}

	snapshot, step, err := s.currentStep(ctx, session)
	if err != nil {
		return transport.SubmitResponse{}, err
	}

	if confirm {
		// Confirming on a terminal step books what was answered so far.
		if _, ok := scriptdomain.ResolveNext(step, req.Answer); ok {
			return transport.SubmitResponse{}, apperr.InvalidInput(msgNothingToConfirm)
		}
		return s.complete(ctx, session, session.Responses)
	}

	answer := sanitize.Answer(req.Answer)
	responses := session.WithResponse(domain.Response{
		StepID:   step.ID,
		Question: step.Prompt,
		Answer:   answer,
	})

	nextID, ok := scriptdomain.ResolveNext(step, req.Answer)
	if !ok {
		if _, err := s.advance(ctx, session.ID, responses, step.ID, true); err != nil {
			return transport.SubmitResponse{}, err
		}
		summary := toSummaryView(responses)
		return transport.SubmitResponse{Step: &summary}, nil
	}

	next, found := snapshot.Step(nextID)
	if !found {
		return transport.SubmitResponse{}, apperr.StepResolution(msgUnknownNextStep)
	}
	if _, err := s.advance(ctx, session.ID, responses, next.ID, false); err != nil {
		return transport.SubmitResponse{}, err
	}
	view := toStepView(next)
	return transport.SubmitResponse{Step: &view}, nil
}

// SubmitFile records a stored file path as the answer to the current step.
// File steps follow only their default pointer, and reaching the end books
// the request without a confirmation round.
func (s *Service) SubmitFile(ctx context.Context, consumerID, sessionID uuid.UUID, filePath string) (transport.SubmitResponse, error) {
	if strings.TrimSpace(filePath) == "" {
		return transport.SubmitResponse{}, apperr.InvalidInput(msgFilePathRequired)
	}

	session, err := s.ownedSession(ctx, consumerID, sessionID)
	if err != nil {
		return transport.SubmitResponse{}, err
	}
	if !session.IsOpen() {
		return transport.SubmitResponse{}, apperr.SessionClosed(msgSessionClosed)
	}
	if session.AwaitingConfirmation {
		return transport.SubmitResponse{}, apperr.InvalidInput(msgAwaitingConfirm)
	}

	snapshot, step, err := s.currentStep(ctx, session)
	if err != nil {
		return transport.SubmitResponse{}, err
	}

	responses := session.WithResponse(domain.Response{
		StepID:   step.ID,
		Question: step.Prompt,
		Answer:   filePath,
		Kind:     domain.ResponseKindFile,
	})

	nextID, ok := scriptdomain.ResolveDefault(step)
	if !ok {
		resp, err := s.complete(ctx, session, responses)
		if err != nil {
			return transport.SubmitResponse{}, err
		}
		resp.FilePath = filePath
		return resp, nil
	}

	next, found := snapshot.Step(nextID)
	if !found {
		return transport.SubmitResponse{}, apperr.StepResolution(msgUnknownNextStep)
	}
	if _, err := s.advance(ctx, session.ID, responses, next.ID, false); err != nil {
		return transport.SubmitResponse{}, err
	}
	view := toStepView(next)
	return transport.SubmitResponse{Step: &view, FilePath: filePath}, nil
}

// GetSession returns a session to the consumer who started it.
func (s *Service) GetSession(ctx context.Context, consumerID, sessionID uuid.UUID) (transport.SessionResponse, error) {
	session, err := s.ownedSession(ctx, consumerID, sessionID)
	if err != nil {
		return transport.SessionResponse{}, err
	}
	return toSessionResponse(session), nil
}

func (s *Service) ownedSession(ctx context.Context, consumerID, sessionID uuid.UUID) (domain.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !session.OwnedBy(consumerID) {
		return domain.Session{}, apperr.Unauthorized(msgNotSessionOwner)
	}
	return session, nil
}

func (s *Service) currentStep(ctx context.Context, session domain.Session) (scriptdomain.Snapshot, scriptdomain.Step, error) {
	snapshot, err := s.scripts.GetSnapshot(ctx, session.BusinessID, session.ScriptVersion)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return scriptdomain.Snapshot{}, scriptdomain.Step{}, apperr.StepResolution(msgUnknownStep)
		}
		return scriptdomain.Snapshot{}, scriptdomain.Step{}, err
	}
	step, ok := snapshot.Step(session.CurrentStep)
	if !ok {
		s.log.Error("session step missing from script",
			"sessionId", session.ID,
			"step", session.CurrentStep,
			"scriptVersion", session.ScriptVersion,
		)
		return scriptdomain.Snapshot{}, scriptdomain.Step{}, apperr.StepResolution(msgUnknownStep)
	}
	return snapshot, step, nil
}

func (s *Service) advance(ctx context.Context, sessionID uuid.UUID, responses []domain.Response, currentStep string, awaiting bool) (domain.Session, error) {
	session, err := s.repo.AdvanceSession(ctx, repository.AdvanceSessionParams{
		SessionID:            sessionID,
		Responses:            responses,
		CurrentStep:          currentStep,
		AwaitingConfirmation: awaiting,
	})
	if errors.Is(err, repository.ErrSessionNotOpen) {
		return domain.Session{}, apperr.SessionClosed(msgSessionClosed)
	}
	return session, err
}
