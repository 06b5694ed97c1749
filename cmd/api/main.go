package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace_backend/internal/adapters"
	"marketplace_backend/internal/adapters/storage"
	"marketplace_backend/internal/businesses"
	"marketplace_backend/internal/events"
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/http/router"
	"marketplace_backend/internal/notification"
	"marketplace_backend/internal/operators"
	"marketplace_backend/internal/scheduler"
	"marketplace_backend/internal/scripts"
	"marketplace_backend/internal/services"
	"marketplace_backend/migrations"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/db"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/telemetry"
	"marketplace_backend/platform/validator"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg, "marketplace-api", log)
	defer func() { _ = shutdownTracing(context.Background()) }()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := db.WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	var scriptCache redis.Cmdable
	if rdb := initRedis(cfg, log); rdb != nil {
		defer func() { _ = rdb.Close() }()
		scriptCache = rdb
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	businessRepo := businesses.NewRepository(pool)

	notificationModule := notification.New(pool, log)
	notificationModule.RegisterHandlers(eventBus)

	scriptsModule := scripts.NewModule(pool, scriptCache, cfg.GetScriptCacheTTL(), businessRepo, val, log)
	operatorsModule := operators.NewModule(pool, val, log)

	// Anti-corruption layer: booking only sees its own roster port.
	roster := adapters.NewOperatorRoster(operatorsModule.Service())
	servicesModule := services.NewModule(pool, scriptsModule.Service(), businessRepo, roster, eventBus, val, log)
	servicesModule.SetNotifier(notificationModule)

	if expiry, closeExpiry := initExpiryScheduler(cfg, log); expiry != nil {
		defer closeExpiry()
		servicesModule.SetExpiryScheduler(expiry, cfg.GetSessionIdleTimeout())
	}

	if uploader := initStorage(ctx, cfg, log); uploader != nil {
		servicesModule.SetUploader(uploader, cfg.GetMinioBucketServiceAttachments())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			scriptsModule,
			operatorsModule,
			servicesModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router.New(app), "marketplace-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; script cache and session expiry disabled")
		return nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; script cache disabled", "error", err)
		return nil
	}
	if cfg.GetRedisTLSInsecure() && opt.TLSConfig != nil {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt)
}

func initExpiryScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize session expiry scheduler", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.Uploader {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; file answers disabled")
		return nil
	}

	store, err := storage.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketServiceAttachments()
	if err := db.WithRetry(ctx, log, "ensure service-attachments bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "bucket", bucket)
	return store
}
