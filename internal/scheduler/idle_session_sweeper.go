package scheduler

import (
	"context"
	"time"

	"marketplace_backend/platform/logger"
)

const defaultIdleSweepInterval = 15 * time.Minute

// IdleSessionSweeper abandons every idle session, in batches.
type IdleSessionSweeper interface {
	SweepIdleSessions(ctx context.Context) (int64, error)
}

// IdleSessionSweep periodically abandons idle sessions whose expiry task was
// lost or fired while the session was still active.
type IdleSessionSweep struct {
	sweeper  IdleSessionSweeper
	log      *logger.Logger
	interval time.Duration
}

func NewIdleSessionSweep(sweeper IdleSessionSweeper, log *logger.Logger, interval time.Duration) *IdleSessionSweep {
	if interval <= 0 {
		interval = defaultIdleSweepInterval
	}
	return &IdleSessionSweep{sweeper: sweeper, log: log, interval: interval}
}

func (s *IdleSessionSweep) Run(ctx context.Context) error {
	if s == nil || s.sweeper == nil {
		return nil
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *IdleSessionSweep) sweep(ctx context.Context) {
	abandoned, err := s.sweeper.SweepIdleSessions(ctx)
	if err != nil {
		s.log.DatabaseError("sweep idle sessions", err)
		return
	}
	if abandoned > 0 {
		s.log.Info("idle session sweep abandoned sessions", "abandoned", abandoned)
	}
}
