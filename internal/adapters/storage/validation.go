package storage

import (
	"fmt"
	"strings"

	"marketplace_backend/platform/apperr"
)

// AllowedContentTypes are the MIME types accepted for file answers.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
	"text/plain":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"audio/mpeg":      true,
	"audio/wav":       true,
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOStore) ValidateContentType(contentType string) error {
	return validateContentType(contentType)
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOStore) ValidateFileSize(sizeBytes int64) error {
	return validateFileSize(sizeBytes, s.maxFileSize)
}

func validateContentType(contentType string) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !AllowedContentTypes[normalized] {
		return apperr.InvalidInput(fmt.Sprintf("content type %q is not allowed", contentType))
	}
	return nil
}

func validateFileSize(sizeBytes, maxFileSize int64) error {
	if sizeBytes <= 0 {
		return apperr.InvalidInput("file is empty")
	}
	if maxFileSize > 0 && sizeBytes > maxFileSize {
		return apperr.InvalidInput(fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxFileSize))
	}
	return nil
}
