// Package services provides the service booking bounded context module:
// intake sessions, operator assignment and the request lifecycle.
package services

import (
	"time"

	"marketplace_backend/internal/adapters/storage"
	"marketplace_backend/internal/businesses"
	"marketplace_backend/internal/events"
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/services/handler"
	"marketplace_backend/internal/services/repository"
	"marketplace_backend/internal/services/service"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the services bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the booking module with all its dependencies.
func NewModule(pool *pgxpool.Pool, scripts service.ScriptSource, biz businesses.Reader, roster service.OperatorRoster, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, scripts, biz, roster, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "services"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetNotifier wires consumer status notifications.
func (m *Module) SetNotifier(n service.Notifier) {
	m.service.SetNotifier(n)
}

// SetExpiryScheduler wires idle-session expiry.
func (m *Module) SetExpiryScheduler(e service.ExpiryScheduler, idleTimeout time.Duration) {
	m.service.SetExpiryScheduler(e, idleTimeout)
}

// SetUploader enables file answers.
func (m *Module) SetUploader(uploader storage.Uploader, bucket string) {
	m.handler.SetUploader(uploader, bucket)
}

// RegisterRoutes mounts booking routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	booking := ctx.Protected.Group("/services")
	booking.POST("/start", ctx.BookingRateLimit, m.handler.Start)
	booking.POST("/submit", ctx.BookingRateLimit, m.handler.Submit)
	booking.POST("/upload", ctx.BookingRateLimit, m.handler.Upload)
	booking.GET("/sessions/:id", m.handler.GetSession)
	booking.GET("/requests", m.handler.ListRequests)

	operator := ctx.Protected.Group("/operator/services", httpkit.RequireRole(httpkit.RoleOperator, httpkit.RoleOwner))
	operator.GET("", m.handler.ListQueue)
	operator.POST("/update-status", m.handler.UpdateStatus)
}

var _ apphttp.Module = (*Module)(nil)
