// Package adapters holds the anti-corruption layer between bounded contexts.
package adapters

import (
	"context"

	operatorsrepo "marketplace_backend/internal/operators/repository"
	bookingsvc "marketplace_backend/internal/services/service"

	"github.com/google/uuid"
)

// RosterLister is the operator directory read used for assignment.
type RosterLister interface {
	Roster(ctx context.Context, businessID uuid.UUID) ([]operatorsrepo.Operator, error)
}

// OperatorRoster adapts the operator directory for the booking engine.
type OperatorRoster struct {
	operators RosterLister
}

func NewOperatorRoster(operators RosterLister) *OperatorRoster {
	return &OperatorRoster{operators: operators}
}

func (a *OperatorRoster) Roster(ctx context.Context, businessID uuid.UUID) ([]bookingsvc.RosterEntry, error) {
	ops, err := a.operators.Roster(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out := make([]bookingsvc.RosterEntry, 0, len(ops))
	for _, op := range ops {
		out = append(out, bookingsvc.RosterEntry{
			OperatorID:  op.UserID,
			Available:   op.Available,
			QueueLength: op.QueueLength,
		})
	}
	return out, nil
}

var _ bookingsvc.OperatorRoster = (*OperatorRoster)(nil)
