package http

import (
	"context"

	"marketplace_backend/internal/events"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router reads: listen/CORS
// settings, booking rate limits and the JWT secret.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to the router once every module is wired.
// Health may be nil, in which case the health check always reports ok.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
