package repository

import (
	"context"

	"marketplace_backend/internal/scripts/domain"

	"github.com/google/uuid"
)

// ScriptReader provides read access to the current script of a business.
type ScriptReader interface {
	GetScript(ctx context.Context, businessID uuid.UUID) (domain.Script, error)
}

// SnapshotReader loads an immutable script version.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context, businessID uuid.UUID, version int) (domain.Snapshot, error)
}

// ScriptWriter replaces a business script wholesale.
type ScriptWriter interface {
	SaveScript(ctx context.Context, businessID uuid.UUID, steps []domain.Step) (domain.Script, error)
}

// Repository combines all script store operations.
type Repository interface {
	ScriptReader
	SnapshotReader
	ScriptWriter
}
