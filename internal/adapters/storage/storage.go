// Package storage stores intake file answers in S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// Uploader writes intake attachments.
type Uploader interface {
	// UploadFile stores reader under folder and returns the object key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
