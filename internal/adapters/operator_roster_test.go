package adapters

import (
	"context"
	"testing"

	operatorsrepo "marketplace_backend/internal/operators/repository"

	"github.com/google/uuid"
)

type rosterFunc func(context.Context, uuid.UUID) ([]operatorsrepo.Operator, error)

func (f rosterFunc) Roster(ctx context.Context, businessID uuid.UUID) ([]operatorsrepo.Operator, error) {
	return f(ctx, businessID)
}

func TestOperatorRosterKeepsOrderAndCounters(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	adapter := NewOperatorRoster(rosterFunc(func(context.Context, uuid.UUID) ([]operatorsrepo.Operator, error) {
		return []operatorsrepo.Operator{
			{UserID: first, Available: true, QueueLength: 2, RosterPosition: 1},
			{UserID: second, Available: false, QueueLength: 0, RosterPosition: 2},
		}, nil
	}))

	entries, err := adapter.Roster(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Roster returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].OperatorID != first || entries[1].OperatorID != second {
		t.Fatalf("unexpected order %+v", entries)
	}
	if entries[0].QueueLength != 2 || entries[1].Available {
		t.Fatalf("unexpected fields %+v", entries)
	}
}
