package service

import (
	"context"
	"errors"
	"strings"

	"marketplace_backend/internal/events"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/internal/services/repository"
	"marketplace_backend/internal/services/transport"
	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	msgInvalidStatus  = "status must be one of pending, confirmed, in_progress, completed, cancelled, ready"
	msgNotAssigned    = "request is assigned to another operator"
	msgStatusConflict = "request status changed; reload and retry"
	msgOtherBusiness  = "request belongs to another business"
)

// UpdateStatus moves a request to newStatus on behalf of its assigned
// operator. When businessScope is set the request must belong to that
// business. The queue counter follows the active/terminal boundary and the
// consumer is notified of every write.
func (s *Service) UpdateStatus(ctx context.Context, operatorID uuid.UUID, businessScope *uuid.UUID, requestID uuid.UUID, newStatus string) (transport.RequestResponse, error) {
	to := domain.RequestStatus(strings.ToLower(strings.TrimSpace(newStatus)))
	if !to.Valid() {
		return transport.RequestResponse{}, apperr.InvalidInput(msgInvalidStatus)
	}

	current, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return transport.RequestResponse{}, err
	}
	if current.OperatorID != operatorID {
		return transport.RequestResponse{}, apperr.Unauthorized(msgNotAssigned)
	}
	if businessScope != nil && *businessScope != current.BusinessID {
		return transport.RequestResponse{}, apperr.Unauthorized(msgOtherBusiness)
	}

	delta := domain.QueueDelta(current.Status, to)
	result, err := s.repo.TransitionStatus(ctx, repository.TransitionParams{
		RequestID:  requestID,
		OperatorID: current.OperatorID,
		From:       current.Status,
		To:         to,
		QueueDelta: delta,
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return transport.RequestResponse{}, apperr.StatusConflict(msgStatusConflict)
	}
	if err != nil {
		return transport.RequestResponse{}, err
	}
	if delta != 0 && !result.QueueAdjusted {
		s.log.QueueAnomaly(current.OperatorID.String(), requestID.String(), "operator queue counter not found during status change")
	}

	updated := result.Request
	s.notifyConsumer(ctx, updated)
	s.publish(ctx, events.ServiceRequestStatusChanged{
		BaseEvent:  events.BaseEventAt(s.now()),
		RequestID:  updated.ID,
		OperatorID: updated.OperatorID,
		ConsumerID: updated.ConsumerID,
		OldStatus:  string(current.Status),
		NewStatus:  string(updated.Status),
		QueueDelta: delta,
	})
	s.log.BookingEvent("service request status updated",
		"requestId", updated.ID,
		"from", current.Status,
		"to", updated.Status,
		"queueDelta", delta,
	)

	return toRequestResponse(updated), nil
}

func (s *Service) notifyConsumer(ctx context.Context, request domain.Request) {
	if s.notifier == nil {
		return
	}
	relatedID := request.ID
	err := s.notifier.Notify(ctx, request.ConsumerID, NotificationKindServiceUpdate, domain.StatusMessage(request.Status), &relatedID)
	if err != nil {
		s.log.Warn("failed to notify consumer of status change", "requestId", request.ID, "error", err)
	}
}

// ListForOperator returns the operator's queue, active requests first.
func (s *Service) ListForOperator(ctx context.Context, operatorID uuid.UUID) (transport.RequestListResponse, error) {
	items, err := s.repo.ListByOperator(ctx, operatorID)
	if err != nil {
		return transport.RequestListResponse{}, err
	}
	return toRequestList(items), nil
}

// ListForConsumer returns the consumer's service requests.
func (s *Service) ListForConsumer(ctx context.Context, consumerID uuid.UUID) (transport.RequestListResponse, error) {
	items, err := s.repo.ListByConsumer(ctx, consumerID)
	if err != nil {
		return transport.RequestListResponse{}, err
	}
	return toRequestList(items), nil
}
