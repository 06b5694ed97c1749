package transport

import (
	"time"

	"marketplace_backend/internal/scripts/domain"

	"github.com/google/uuid"
)

// SaveScriptRequest replaces a business script wholesale.
type SaveScriptRequest struct {
	Steps []domain.Step `json:"steps" validate:"max=200"`
}

// ScriptResponse represents a script in API responses.
type ScriptResponse struct {
	BusinessID uuid.UUID        `json:"businessId"`
	Version    int              `json:"version"`
	Steps      []domain.Step    `json:"steps"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Warnings   []domain.Warning `json:"warnings,omitempty"`
}
