// Package notification delivers in-app notifications. Other modules call
// Notify directly; this module also reacts to booking events on the bus.
package notification

import (
	"context"
	"fmt"

	"marketplace_backend/internal/events"
	apphttp "marketplace_backend/internal/http"
	notifhandler "marketplace_backend/internal/notification/handler"
	"marketplace_backend/internal/notification/inapp"
	"marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const newRequestMessage = "A new service request is in your queue (position %d, about %d minutes)"

// Module handles notification events and serves the inbox.
type Module struct {
	inapp   *inapp.Service
	handler *notifhandler.HTTPHandler
	log     *logger.Logger
}

// New creates the notification module backed by PostgreSQL.
func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return NewWithStore(inapp.NewRepository(pool), log)
}

// NewWithStore creates the notification module on an explicit store.
func NewWithStore(store inapp.Store, log *logger.Logger) *Module {
	svc := inapp.NewService(store, log)
	return &Module{
		inapp:   svc,
		handler: notifhandler.NewHTTPHandler(svc),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Notify persists a notification for recipientID.
func (m *Module) Notify(ctx context.Context, recipientID uuid.UUID, kind, message string, relatedID *uuid.UUID) error {
	return m.inapp.Notify(ctx, recipientID, kind, message, relatedID)
}

// RegisterRoutes mounts the inbox routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

// RegisterHandlers subscribes to booking events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ServiceRequestCreated{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ServiceRequestCreated:
		return m.handleServiceRequestCreated(ctx, e)
	default:
		m.log.Debug("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleServiceRequestCreated(ctx context.Context, e events.ServiceRequestCreated) error {
	requestID := e.RequestID
	message := fmt.Sprintf(newRequestMessage, e.QueuePosition, e.EstimatedWaitMinutes)
	if err := m.inapp.Notify(ctx, e.OperatorID, inapp.KindServiceUpdate, message, &requestID); err != nil {
		return fmt.Errorf("notify operator %s: %w", e.OperatorID, err)
	}
	return nil
}

var _ apphttp.Module = (*Module)(nil)
