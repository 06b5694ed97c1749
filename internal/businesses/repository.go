// Package businesses provides read access to the business records that own
// service scripts and operator rosters. Business CRUD lives elsewhere.
package businesses

import (
	"context"
	"errors"
	"fmt"

	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Type is the business_type column.
type Type string

const (
	TypeRetail  Type = "retail"
	TypeService Type = "service"
	TypeHybrid  Type = "hybrid"
)

const businessNotFoundMessage = "business not found"

// Business is the subset of a business row the booking engine reads.
type Business struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"ownerId"`
	Name    string    `json:"name"`
	Type    Type      `json:"businessType"`
	Status  string    `json:"status"`
}

// IsRetail reports whether the business sells products only and cannot run
// service flows.
func (b Business) IsRetail() bool {
	return b.Type == TypeRetail
}

// IsOwnedBy reports whether userID owns the business.
func (b Business) IsOwnedBy(userID uuid.UUID) bool {
	return b.OwnerID == userID
}

// Reader looks up businesses by id.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Business, error)
}

// Repository implements Reader with PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a business repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Reader = (*Repository)(nil)

// GetByID returns the business or apperr NotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Business, error) {
	var b Business
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, business_type, status
		FROM businesses
		WHERE id = $1`, id,
	).Scan(&b.ID, &b.OwnerID, &b.Name, &b.Type, &b.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, apperr.NotFound(businessNotFoundMessage)
		}
		return Business{}, fmt.Errorf("get business by id: %w", err)
	}
	return b, nil
}
