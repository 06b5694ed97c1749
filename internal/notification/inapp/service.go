// Package inapp persists in-app notifications that users poll for.
package inapp

import (
	"context"
	"strings"

	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo Store
	log  *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Notify persists one notification for recipientID.
func (s *Service) Notify(ctx context.Context, recipientID uuid.UUID, kind, message string, relatedID *uuid.UUID) error {
	if recipientID == uuid.Nil {
		return apperr.InvalidInput("recipientId is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return apperr.InvalidInput("message is required")
	}
	switch kind {
	case KindOrderUpdate, KindServiceUpdate, KindGeneral:
	case "":
		kind = KindGeneral
	default:
		return apperr.InvalidInput("unknown notification kind")
	}

	if _, err := s.repo.Create(ctx, CreateParams{
		RecipientID: recipientID,
		Kind:        kind,
		Message:     message,
		RelatedID:   relatedID,
	}); err != nil {
		s.log.Error("failed to persist in-app notification", "error", err, "userId", recipientID)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if userID == uuid.Nil {
		return nil, 0, apperr.InvalidInput(errUserIDRequired)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.repo.List(ctx, userID, pageSize, (page-1)*pageSize)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
