package upload

import (
	"errors"
	"net/http"
)

var (
	ErrStorageNotConfigured = errors.New("object storage is not configured")
	ErrMissingField         = errors.New("missing required field")
	ErrUnsupportedType      = errors.New("unsupported content type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrEmptyPrefix          = errors.New("prefix must not be empty")
	ErrObjectNotFound       = errors.New("object not found")
)

// ErrorStatus map sentinel error -> HTTP status
// Lỗi từ store (có HTTP status) được handler xử lý riêng
var ErrorStatus = map[error]int{
	ErrStorageNotConfigured: http.StatusBadRequest,
	ErrMissingField:         http.StatusBadRequest,
	ErrUnsupportedType:      http.StatusBadRequest,
	ErrFileTooLarge:         http.StatusRequestEntityTooLarge,
	ErrEmptyPrefix:          http.StatusBadRequest,
	ErrObjectNotFound:       http.StatusNotFound,
}
