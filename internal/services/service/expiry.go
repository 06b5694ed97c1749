package service

import (
	"context"

	"github.com/google/uuid"
)

const defaultSweepBatch = 500

// ExpireIdleSession marks the session abandoned if it is still in progress
// and has seen no activity for the idle timeout.
func (s *Service) ExpireIdleSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	if s.idleTimeout <= 0 {
		return false, nil
	}
	expired, err := s.repo.AbandonIdleSession(ctx, sessionID, s.now().Add(-s.idleTimeout))
	if err != nil {
		return false, err
	}
	if expired {
		s.log.BookingEvent("session abandoned", "sessionId", sessionID)
	}
	return expired, nil
}

// SweepIdleSessions abandons idle sessions in batches until none remain.
func (s *Service) SweepIdleSessions(ctx context.Context) (int64, error) {
	if s.idleTimeout <= 0 {
		return 0, nil
	}
	idleBefore := s.now().Add(-s.idleTimeout)

	var total int64
	for {
		n, err := s.repo.AbandonIdleSessions(ctx, idleBefore, defaultSweepBatch)
		if err != nil {
			return total, err
		}
		total += n
		if n < defaultSweepBatch {
			return total, nil
		}
	}
}
