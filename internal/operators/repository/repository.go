// Package repository persists operator rosters and their live queue counters.
package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const operatorNotFoundMessage = "operator not found"

// Operator is a roster entry of a business.
type Operator struct {
	UserID         uuid.UUID
	BusinessID     uuid.UUID
	Name           string
	Available      bool
	QueueLength    int
	RosterPosition int64
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx so counter updates can
// join a caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IncrementQueue adds one to the operator's queue counter in a single
// statement and returns the post-increment value. found is false when the
// operator has no roster row.
func IncrementQueue(ctx context.Context, q Querier, operatorID uuid.UUID) (length int, found bool, err error) {
	err = q.QueryRow(ctx, `
		UPDATE business_operators
		SET queue_length = queue_length + 1
		WHERE user_id = $1
		RETURNING queue_length`, operatorID,
	).Scan(&length)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("increment queue length: %w", err)
	}
	return length, true, nil
}

// DecrementQueue subtracts one from the operator's queue counter, never
// going below zero.
func DecrementQueue(ctx context.Context, q Querier, operatorID uuid.UUID) (length int, found bool, err error) {
	err = q.QueryRow(ctx, `
		UPDATE business_operators
		SET queue_length = GREATEST(queue_length - 1, 0)
		WHERE user_id = $1
		RETURNING queue_length`, operatorID,
	).Scan(&length)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("decrement queue length: %w", err)
	}
	return length, true, nil
}

// Repository provides roster reads and writes.
type Repository interface {
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Operator, error)
	GetOperator(ctx context.Context, operatorID uuid.UUID) (Operator, error)
	SetAvailability(ctx context.Context, operatorID uuid.UUID, available bool) (Operator, error)
	ReconcileQueueLengths(ctx context.Context) (int64, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new operator repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const selectOperator = `
	SELECT o.user_id, o.business_id, u.name, o.is_available, o.queue_length, o.roster_position
	FROM business_operators o
	JOIN users u ON u.id = o.user_id`

// ListByBusiness returns the roster in roster order.
func (r *Repo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Operator, error) {
	rows, err := r.pool.Query(ctx, selectOperator+`
		WHERE o.business_id = $1
		ORDER BY o.roster_position ASC`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	operators := make([]Operator, 0)
	for rows.Next() {
		var op Operator
		if err := rows.Scan(&op.UserID, &op.BusinessID, &op.Name, &op.Available, &op.QueueLength, &op.RosterPosition); err != nil {
			return nil, fmt.Errorf("scan operator: %w", err)
		}
		operators = append(operators, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operators: %w", err)
	}
	return operators, nil
}

// GetOperator returns one roster entry.
func (r *Repo) GetOperator(ctx context.Context, operatorID uuid.UUID) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, selectOperator+`
		WHERE o.user_id = $1`, operatorID,
	).Scan(&op.UserID, &op.BusinessID, &op.Name, &op.Available, &op.QueueLength, &op.RosterPosition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operator{}, apperr.NotFound(operatorNotFoundMessage)
		}
		return Operator{}, fmt.Errorf("get operator: %w", err)
	}
	return op, nil
}

// SetAvailability flips the operator's availability flag.
func (r *Repo) SetAvailability(ctx context.Context, operatorID uuid.UUID, available bool) (Operator, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE business_operators
		SET is_available = $2
		WHERE user_id = $1`, operatorID, available)
	if err != nil {
		return Operator{}, fmt.Errorf("set operator availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Operator{}, apperr.NotFound(operatorNotFoundMessage)
	}
	return r.GetOperator(ctx, operatorID)
}

// ReconcileQueueLengths recomputes every counter from the active requests it
// should mirror and returns the number of rows that drifted.
func (r *Repo) ReconcileQueueLengths(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		WITH actual AS (
			SELECT o.user_id, COUNT(sr.id)::int AS active
			FROM business_operators o
			LEFT JOIN service_requests sr
				ON sr.operator_id = o.user_id
				AND sr.status IN ('pending', 'confirmed', 'in_progress')
			GROUP BY o.user_id
		)
		UPDATE business_operators o
		SET queue_length = actual.active
		FROM actual
		WHERE o.user_id = actual.user_id
		  AND o.queue_length <> actual.active`)
	if err != nil {
		return 0, fmt.Errorf("reconcile queue lengths: %w", err)
	}
	return tag.RowsAffected(), nil
}
