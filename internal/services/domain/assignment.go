package domain

import "github.com/google/uuid"

// Candidate is an operator considered for auto-assignment.
type Candidate struct {
	OperatorID  uuid.UUID
	QueueLength int
}

// LeastLoaded returns the candidate with the smallest queue length. Ties go
// to the earliest candidate, so callers pass the roster in roster order.
func LeastLoaded(candidates []Candidate) (uuid.UUID, bool) {
	if len(candidates) == 0 {
		return uuid.Nil, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.QueueLength < best.QueueLength {
			best = c
		}
	}
	return best.OperatorID, true
}
