package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketplace_backend/internal/adapters/storage"
	"marketplace_backend/internal/services/domain"
	"marketplace_backend/internal/services/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest    = "invalid request"
	msgValidationFailed  = "validation failed"
	msgInvalidSessionID  = "invalid session ID"
	msgFileRequired      = "file is required"
	msgUploadsDisabled   = "file uploads are not configured"
	msgUploadFailed      = "failed to store file"
	msgSessionClosed     = "session is no longer accepting answers"
	msgAwaitingConfirm   = "session is waiting for summary confirmation"
	uploadTimeout        = 2 * time.Minute
	sessionFolderPattern = "sessions/%s"
)

// Engine is the booking service as used over HTTP.
type Engine interface {
	Start(ctx context.Context, consumerID uuid.UUID, req transport.StartSessionRequest) (transport.StartSessionResponse, error)
	Submit(ctx context.Context, consumerID uuid.UUID, req transport.SubmitAnswerRequest) (transport.SubmitResponse, error)
	SubmitFile(ctx context.Context, consumerID, sessionID uuid.UUID, filePath string) (transport.SubmitResponse, error)
	GetSession(ctx context.Context, consumerID, sessionID uuid.UUID) (transport.SessionResponse, error)
	ListForConsumer(ctx context.Context, consumerID uuid.UUID) (transport.RequestListResponse, error)
	ListForOperator(ctx context.Context, operatorID uuid.UUID) (transport.RequestListResponse, error)
	UpdateStatus(ctx context.Context, operatorID uuid.UUID, businessScope *uuid.UUID, requestID uuid.UUID, status string) (transport.RequestResponse, error)
}

// Handler handles HTTP requests for service bookings.
type Handler struct {
	svc      Engine
	val      *validator.Validator
	uploader storage.Uploader
	bucket   string
}

// New creates a new booking handler.
func New(svc Engine, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetUploader enables file answers stored in bucket.
func (h *Handler) SetUploader(uploader storage.Uploader, bucket string) {
	h.uploader = uploader
	h.bucket = bucket
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// Start opens an intake session.
// POST /api/v1/services/start
func (h *Handler) Start(c *gin.Context) {
	var req transport.StartSessionRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Start(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Submit answers the current step or confirms the summary.
// POST /api/v1/services/submit
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitAnswerRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Upload stores a file answer and submits its path.
// POST /api/v1/services/upload
func (h *Handler) Upload(c *gin.Context) {
	if h.uploader == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgUploadsDisabled, nil)
		return
	}

	var req transport.UploadAnswerRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if httpkit.HandleError(c, h.uploader.ValidateContentType(contentType)) {
		return
	}
	if httpkit.HandleError(c, h.uploader.ValidateFileSize(fileHeader.Size)) {
		return
	}

	// Reject foreign or closed sessions before writing to storage.
	session, err := h.svc.GetSession(c.Request.Context(), identity.UserID(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	if httpkit.HandleError(c, checkAcceptsFile(session)) {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()
	folder := fmt.Sprintf(sessionFolderPattern, sessionID)
	fileKey, err := h.uploader.UploadFile(ctx, h.bucket, folder, fileHeader.Filename, contentType, file, fileHeader.Size)
	if err != nil {
		_ = c.Error(err)
		httpkit.JSON(c, http.StatusBadGateway, httpkit.ErrorResponse{Error: msgUploadFailed})
		return
	}

	result, err := h.svc.SubmitFile(c.Request.Context(), identity.UserID(), sessionID, fileKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func checkAcceptsFile(session transport.SessionResponse) error {
	if session.Status != string(domain.SessionInProgress) {
		return apperr.SessionClosed(msgSessionClosed)
	}
	if session.AwaitingConfirmation {
		return apperr.InvalidInput(msgAwaitingConfirm)
	}
	return nil
}

// GetSession returns one of the caller's sessions.
// GET /api/v1/services/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetSession(c.Request.Context(), identity.UserID(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListRequests returns the caller's service requests.
// GET /api/v1/services/requests
func (h *Handler) ListRequests(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListForConsumer(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListQueue returns the acting operator's requests.
// GET /api/v1/operator/services
func (h *Handler) ListQueue(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListForOperator(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateStatus moves one of the operator's requests to a new status.
// POST /api/v1/operator/services/update-status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), identity.UserID(), identity.OperatorOf(), req.OrderID, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
