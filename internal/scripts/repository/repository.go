package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace_backend/internal/scripts/domain"
	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	scriptNotFoundMessage  = "script not found"
	versionNotFoundMessage = "script version not found"
)

// Repo implements Repository with PostgreSQL. Steps are stored as JSONB.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new script repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetScript returns the current script of a business.
func (r *Repo) GetScript(ctx context.Context, businessID uuid.UUID) (domain.Script, error) {
	var (
		raw       []byte
		version   int
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT version, steps, updated_at
		FROM service_scripts
		WHERE business_id = $1`, businessID,
	).Scan(&version, &raw, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Script{}, apperr.NotFound(scriptNotFoundMessage)
		}
		return domain.Script{}, fmt.Errorf("get script: %w", err)
	}

	steps, err := decodeSteps(raw)
	if err != nil {
		return domain.Script{}, err
	}

	return domain.Script{BusinessID: businessID, Version: version, Steps: steps, UpdatedAt: updatedAt}, nil
}

// GetSnapshot loads the steps recorded for one version.
func (r *Repo) GetSnapshot(ctx context.Context, businessID uuid.UUID, version int) (domain.Snapshot, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT steps
		FROM service_script_versions
		WHERE business_id = $1 AND version = $2`, businessID, version,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, apperr.NotFound(versionNotFoundMessage)
		}
		return domain.Snapshot{}, fmt.Errorf("get script snapshot: %w", err)
	}

	steps, err := decodeSteps(raw)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.NewSnapshot(businessID, version, steps), nil
}

// SaveScript upserts the script, bumping its version, and records the new
// version as an immutable snapshot in the same transaction.
func (r *Repo) SaveScript(ctx context.Context, businessID uuid.UUID, steps []domain.Step) (domain.Script, error) {
	if steps == nil {
		steps = []domain.Step{}
	}
	raw, err := json.Marshal(steps)
	if err != nil {
		return domain.Script{}, fmt.Errorf("encode script steps: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Script{}, fmt.Errorf("begin save script: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		version   int
		updatedAt time.Time
	)
	err = tx.QueryRow(ctx, `
		INSERT INTO service_scripts (business_id, version, steps)
		VALUES ($1, 1, $2)
		ON CONFLICT (business_id) DO UPDATE
		SET version = service_scripts.version + 1,
		    steps = EXCLUDED.steps,
		    updated_at = now()
		RETURNING version, updated_at`, businessID, raw,
	).Scan(&version, &updatedAt)
	if err != nil {
		return domain.Script{}, fmt.Errorf("upsert script: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO service_script_versions (business_id, version, steps)
		VALUES ($1, $2, $3)`, businessID, version, raw,
	); err != nil {
		return domain.Script{}, fmt.Errorf("record script version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Script{}, fmt.Errorf("commit save script: %w", err)
	}

	return domain.Script{BusinessID: businessID, Version: version, Steps: steps, UpdatedAt: updatedAt}, nil
}

func decodeSteps(raw []byte) ([]domain.Step, error) {
	steps := make([]domain.Step, 0)
	if len(raw) == 0 {
		return steps, nil
	}
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("decode script steps: %w", err)
	}
	return steps, nil
}
