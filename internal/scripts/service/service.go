// Package service implements the script store: reads, owner-guarded saves and
// frozen version lookups for the session engine.
package service

import (
	"context"

	"marketplace_backend/internal/businesses"
	"marketplace_backend/internal/scripts/domain"
	"marketplace_backend/internal/scripts/repository"
	"marketplace_backend/internal/scripts/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgRetailNoScripts = "retail businesses cannot offer service scripts"
	msgNotOwner        = "only the business owner can manage its script"
)

// Service provides business logic for service scripts.
type Service struct {
	repo       repository.Repository
	snapshots  repository.SnapshotReader
	businesses businesses.Reader
	log        *logger.Logger
}

// New creates a script service. snapshots may be a cache in front of repo;
// when nil, repo serves snapshots directly.
func New(repo repository.Repository, snapshots repository.SnapshotReader, biz businesses.Reader, log *logger.Logger) *Service {
	if snapshots == nil {
		snapshots = repo
	}
	return &Service{repo: repo, snapshots: snapshots, businesses: biz, log: log}
}

// GetScript returns the current script of a business.
func (s *Service) GetScript(ctx context.Context, businessID uuid.UUID) (domain.Script, error) {
	return s.repo.GetScript(ctx, businessID)
}

// GetSnapshot returns the immutable step graph of one script version.
func (s *Service) GetSnapshot(ctx context.Context, businessID uuid.UUID, version int) (domain.Snapshot, error) {
	return s.snapshots.GetSnapshot(ctx, businessID, version)
}

// GetForOwner returns the script of a business the actor owns.
func (s *Service) GetForOwner(ctx context.Context, actorID, businessID uuid.UUID) (transport.ScriptResponse, error) {
	if _, err := s.ownedServiceBusiness(ctx, actorID, businessID); err != nil {
		return transport.ScriptResponse{}, err
	}
	script, err := s.repo.GetScript(ctx, businessID)
	if err != nil {
		return transport.ScriptResponse{}, err
	}
	return toResponse(script, nil), nil
}

// Save replaces the script of a business the actor owns. Graph problems are
// returned as warnings and never block the save.
func (s *Service) Save(ctx context.Context, actorID, businessID uuid.UUID, steps []domain.Step) (transport.ScriptResponse, error) {
	if _, err := s.ownedServiceBusiness(ctx, actorID, businessID); err != nil {
		return transport.ScriptResponse{}, err
	}
	return s.save(ctx, businessID, steps)
}

// Import replaces a script without an acting owner. Used by operator tooling.
func (s *Service) Import(ctx context.Context, businessID uuid.UUID, steps []domain.Step) (transport.ScriptResponse, error) {
	biz, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return transport.ScriptResponse{}, err
	}
	if biz.IsRetail() {
		return transport.ScriptResponse{}, apperr.Forbidden(msgRetailNoScripts)
	}
	return s.save(ctx, businessID, steps)
}

func (s *Service) save(ctx context.Context, businessID uuid.UUID, steps []domain.Step) (transport.ScriptResponse, error) {
	warnings, err := domain.Validate(steps)
	if err != nil {
		return transport.ScriptResponse{}, apperr.Wrap(apperr.KindValidation, apperr.CodeInvalidInput, "script is invalid", err).WithDetails(err.Error())
	}

	script, err := s.repo.SaveScript(ctx, businessID, steps)
	if err != nil {
		return transport.ScriptResponse{}, err
	}

	s.log.BookingEvent("service script saved",
		"businessId", businessID,
		"version", script.Version,
		"steps", len(script.Steps),
		"warnings", len(warnings),
	)
	return toResponse(script, warnings), nil
}

func (s *Service) ownedServiceBusiness(ctx context.Context, actorID, businessID uuid.UUID) (businesses.Business, error) {
	biz, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return businesses.Business{}, err
	}
	if biz.IsRetail() {
		return businesses.Business{}, apperr.Forbidden(msgRetailNoScripts)
	}
	if !biz.IsOwnedBy(actorID) {
		return businesses.Business{}, apperr.Unauthorized(msgNotOwner)
	}
	return biz, nil
}

func toResponse(script domain.Script, warnings []domain.Warning) transport.ScriptResponse {
	steps := script.Steps
	if steps == nil {
		steps = []domain.Step{}
	}
	return transport.ScriptResponse{
		BusinessID: script.BusinessID,
		Version:    script.Version,
		Steps:      steps,
		UpdatedAt:  script.UpdatedAt,
		Warnings:   warnings,
	}
}
