package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marketplace_backend/internal/adapters"
	"marketplace_backend/internal/businesses"
	"marketplace_backend/internal/events"
	"marketplace_backend/internal/operators"
	"marketplace_backend/internal/scheduler"
	"marketplace_backend/internal/scripts"
	"marketplace_backend/internal/services"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/db"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	businessRepo := businesses.NewRepository(pool)

	// Worker-side booking wiring (no HTTP handlers required).
	scriptsModule := scripts.NewModule(pool, nil, 0, businessRepo, val, log)
	operatorsModule := operators.NewModule(pool, val, log)
	roster := adapters.NewOperatorRoster(operatorsModule.Service())
	servicesModule := services.NewModule(pool, scriptsModule.Service(), businessRepo, roster, eventBus, val, log)
	servicesModule.SetExpiryScheduler(nil, cfg.GetSessionIdleTimeout())
	booking := servicesModule.Service()

	worker, err := scheduler.NewWorker(cfg, booking, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	sweep := scheduler.NewIdleSessionSweep(booking, log, getDurationEnv("IDLE_SWEEP_INTERVAL", 15*time.Minute))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return sweep.Run(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
	log.Info("scheduler stopped")
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
