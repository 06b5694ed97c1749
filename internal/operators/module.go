// Package operators provides the operator directory bounded context module.
package operators

import (
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/operators/handler"
	"marketplace_backend/internal/operators/repository"
	"marketplace_backend/internal/operators/service"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the operators bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the operators module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "operators"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts operator routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/businesses/:id/operators", m.handler.List)
	ctx.Protected.PATCH("/operator/availability", httpkit.RequireRole(httpkit.RoleOperator), m.handler.SetAvailability)
}

var _ apphttp.Module = (*Module)(nil)
