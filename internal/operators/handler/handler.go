package handler

import (
	"net/http"

	"marketplace_backend/internal/operators/service"
	"marketplace_backend/internal/operators/transport"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for operator rosters.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new operator handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns a business roster.
// GET /api/v1/businesses/:id/operators
func (h *Handler) List(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid business ID", nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), businessID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetAvailability toggles the acting operator's availability.
// PATCH /api/v1/operator/availability
func (h *Handler) SetAvailability(c *gin.Context) {
	var req transport.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SetAvailability(c.Request.Context(), identity.UserID(), identity.OperatorOf(), *req.Available)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
