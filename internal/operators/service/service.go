// Package service implements the operator directory.
package service

import (
	"context"

	"marketplace_backend/internal/operators/repository"
	"marketplace_backend/internal/operators/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides business logic for operator rosters.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new operator service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Roster returns the raw roster of a business in roster order.
func (s *Service) Roster(ctx context.Context, businessID uuid.UUID) ([]repository.Operator, error) {
	return s.repo.ListByBusiness(ctx, businessID)
}

// List returns the roster of a business with availability and queue length.
func (s *Service) List(ctx context.Context, businessID uuid.UUID) (transport.OperatorListResponse, error) {
	roster, err := s.repo.ListByBusiness(ctx, businessID)
	if err != nil {
		return transport.OperatorListResponse{}, err
	}
	items := make([]transport.OperatorResponse, 0, len(roster))
	for _, op := range roster {
		items = append(items, toResponse(op))
	}
	return transport.OperatorListResponse{Items: items, Total: len(items)}, nil
}

// SetAvailability updates the acting operator's availability flag. When
// businessScope is set the operator must be on that business's roster.
func (s *Service) SetAvailability(ctx context.Context, operatorID uuid.UUID, businessScope *uuid.UUID, available bool) (transport.OperatorResponse, error) {
	if businessScope != nil {
		current, err := s.repo.GetOperator(ctx, operatorID)
		if err != nil {
			return transport.OperatorResponse{}, err
		}
		if current.BusinessID != *businessScope {
			return transport.OperatorResponse{}, apperr.Forbidden("operator is not on this business's roster")
		}
	}

	op, err := s.repo.SetAvailability(ctx, operatorID, available)
	if err != nil {
		return transport.OperatorResponse{}, err
	}
	s.log.Info("operator availability updated", "operatorId", operatorID, "available", available)
	return toResponse(op), nil
}

// Reconcile rewrites drifted queue counters from the active request count.
func (s *Service) Reconcile(ctx context.Context) (transport.ReconcileResponse, error) {
	corrected, err := s.repo.ReconcileQueueLengths(ctx)
	if err != nil {
		return transport.ReconcileResponse{}, err
	}
	if corrected > 0 {
		s.log.Warn("queue lengths reconciled", "corrected", corrected)
	}
	return transport.ReconcileResponse{Corrected: corrected}, nil
}

func toResponse(op repository.Operator) transport.OperatorResponse {
	return transport.OperatorResponse{
		ID:          op.UserID,
		BusinessID:  op.BusinessID,
		Name:        op.Name,
		IsAvailable: op.Available,
		QueueLength: op.QueueLength,
	}
}
