package service

import (
	"context"
	"errors"

	"marketplace_backend/internal/events"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/internal/services/repository"
	"marketplace_backend/internal/services/transport"
	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
)

// complete converts an open session into a service request. It runs once per
// session: the repository completes the session and reserves the queue slot
// in one transaction, and a lost race reports the request that won.
func (s *Service) complete(ctx context.Context, session domain.Session, responses []domain.Response) (transport.SubmitResponse, error) {
	operatorID, err := s.selectOperator(ctx, session)
	if err != nil {
		return transport.SubmitResponse{}, err
	}

	result, err := s.repo.Book(ctx, repository.BookParams{
		SessionID:      session.ID,
		BusinessID:     session.BusinessID,
		ConsumerID:     session.ConsumerID,
		OperatorID:     operatorID,
		Responses:      responses,
		MinutesPerTask: domain.MinutesPerTask,
	})
	if errors.Is(err, repository.ErrSessionNotOpen) {
		return s.afterLostCompletion(ctx, session.ID)
	}
	if err != nil {
		return transport.SubmitResponse{}, err
	}

	request := result.Request
	if !result.Reserved {
		s.log.QueueAnomaly(operatorID.String(), request.ID.String(), "operator queue counter not found; position defaulted to 1")
	}

	s.publish(ctx, events.ServiceRequestCreated{
		BaseEvent:            events.BaseEventAt(s.now()),
		RequestID:            request.ID,
		SessionID:            request.SessionID,
		BusinessID:           request.BusinessID,
		ConsumerID:           request.ConsumerID,
		OperatorID:           request.OperatorID,
		QueuePosition:        request.QueuePosition,
		EstimatedWaitMinutes: request.EstimatedWaitMinutes,
	})
	s.log.BookingEvent("service request created",
		"requestId", request.ID,
		"sessionId", request.SessionID,
		"operatorId", request.OperatorID,
		"queuePosition", request.QueuePosition,
	)

	requestID := request.ID
	return transport.SubmitResponse{Completed: true, RequestID: &requestID}, nil
}

// selectOperator returns the bound operator, or the least-loaded roster
// member, or the business owner when the roster is empty.
func (s *Service) selectOperator(ctx context.Context, session domain.Session) (uuid.UUID, error) {
	if session.OperatorID != nil {
		return *session.OperatorID, nil
	}

	roster, err := s.roster.Roster(ctx, session.BusinessID)
	if err != nil {
		return uuid.Nil, err
	}
	candidates := make([]domain.Candidate, 0, len(roster))
	for _, entry := range roster {
		candidates = append(candidates, domain.Candidate{OperatorID: entry.OperatorID, QueueLength: entry.QueueLength})
	}
	if operatorID, ok := domain.LeastLoaded(candidates); ok {
		return operatorID, nil
	}

	biz, err := s.businesses.GetByID(ctx, session.BusinessID)
	if err != nil {
		return uuid.Nil, err
	}
	s.log.Info("business has no operators; assigning owner", "businessId", biz.ID, "sessionId", session.ID)
	return biz.OwnerID, nil
}

func (s *Service) afterLostCompletion(ctx context.Context, sessionID uuid.UUID) (transport.SubmitResponse, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return transport.SubmitResponse{}, err
	}
	if session.Status != domain.SessionCompleted {
		return transport.SubmitResponse{}, apperr.SessionClosed(msgSessionClosed)
	}
	return s.completedResponse(ctx, sessionID)
}

func (s *Service) completedResponse(ctx context.Context, sessionID uuid.UUID) (transport.SubmitResponse, error) {
	request, err := s.repo.GetRequestBySession(ctx, sessionID)
	if err != nil {
		return transport.SubmitResponse{}, err
	}
	requestID := request.ID
	return transport.SubmitResponse{Completed: true, RequestID: &requestID}, nil
}
