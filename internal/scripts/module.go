// Package scripts provides the service script bounded context module.
// Business owners maintain a versioned graph of intake questions per business.
package scripts

import (
	"time"

	"marketplace_backend/internal/businesses"
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/scripts/handler"
	"marketplace_backend/internal/scripts/repository"
	"marketplace_backend/internal/scripts/service"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the scripts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates the scripts module. When rdb is non-nil, frozen script
// versions are served through a Redis cache.
func NewModule(pool *pgxpool.Pool, rdb redis.Cmdable, cacheTTL time.Duration, biz businesses.Reader, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var snapshots repository.SnapshotReader = repo
	if rdb != nil {
		snapshots = repository.NewCachedSnapshots(repo, rdb, cacheTTL, log)
	}

	svc := service.New(repo, snapshots, biz, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scripts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts script routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	owner := ctx.Protected.Group("/businesses/:id/script", httpkit.RequireRole(httpkit.RoleOwner))
	owner.GET("", m.handler.Get)
	owner.PUT("", m.handler.Save)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
