package scheduler

import (
	"context"
	"fmt"

	"marketplace_backend/platform/config"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SessionExpirer abandons a session that stayed idle.
type SessionExpirer interface {
	ExpireIdleSession(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	expirer SessionExpirer
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, expirer SessionExpirer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		expirer: expirer,
		log:     log,
	}
	mux.HandleFunc(TaskSessionExpire, w.handleSessionExpire)

	return w, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}

	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleSessionExpire(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSessionExpirePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", payload.SessionID, asynq.SkipRetry)
	}

	expired, err := w.expirer.ExpireIdleSession(ctx, sessionID)
	if err != nil {
		return err
	}
	w.log.Debug("session expiry checked", "sessionId", sessionID, "expired", expired)
	return nil
}
