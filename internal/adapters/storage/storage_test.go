package storage

import (
	"strings"
	"testing"

	"marketplace_backend/platform/apperr"
)

func TestObjectKeyStripsDirectoriesAndIsUnique(t *testing.T) {
	a := ObjectKey("sessions/abc", "../../etc/photo.jpg")
	b := ObjectKey("sessions/abc", "photo.jpg")

	if !strings.HasPrefix(a, "sessions/abc/photo_") || !strings.HasSuffix(a, ".jpg") {
		t.Fatalf("unexpected key %q", a)
	}
	if a == b {
		t.Fatal("expected unique keys for the same file name")
	}
}

func TestValidation(t *testing.T) {
	store := &MinIOStore{maxFileSize: 100}

	if err := store.ValidateContentType("image/PNG; charset=binary"); err != nil {
		t.Fatalf("expected png to be allowed: %v", err)
	}
	if err := store.ValidateContentType("application/x-msdownload"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := store.ValidateFileSize(0); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := store.ValidateFileSize(101); err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	if err := store.ValidateFileSize(100); err != nil {
		t.Fatalf("expected size at limit to pass: %v", err)
	}
}
