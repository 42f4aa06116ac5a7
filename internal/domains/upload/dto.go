package upload

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxUploadBytes là kích thước tối đa khai báo cho một upload (10 MiB)
const MaxUploadBytes int64 = 10 << 20

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// AllowedContentTypes map content type được phép -> extension của object key
var AllowedContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// PresignRequest - POST /api/s3/presign
// fileName được nhận như alias của filename
type PresignRequest struct {
	Filename    string `json:"filename"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        *int64 `json:"size"`
}

// Name trả về tên file, ưu tiên filename
func (r PresignRequest) Name() string {
	if strings.TrimSpace(r.Filename) != "" {
		return r.Filename
	}
	return r.FileName
}

// Validate kiểm tra theo thứ tự: thiếu field -> type -> size
// Kiểm tra size chỉ là guard UX/chi phí: store không ràng buộc size đã khai báo
func (r PresignRequest) Validate() error {
	err := validation.Errors{
		"filename":    validation.Validate(strings.TrimSpace(r.Name()), validation.Required),
		"contentType": validation.Validate(r.ContentType, validation.Required),
		"size":        validation.Validate(r.Size, validation.NotNil),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	if _, ok := AllowedContentTypes[strings.ToLower(r.ContentType)]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, r.ContentType)
	}

	if *r.Size <= 0 {
		return fmt.Errorf("%w: size must be positive", ErrMissingField)
	}
	if *r.Size > MaxUploadBytes {
		return fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, MaxUploadBytes)
	}
	return nil
}

type PresignResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// KeyRequest - body của view-url / delete
type KeyRequest struct {
	Key string `json:"key"`
}

type URLResponse struct {
	URL string `json:"url"`
}

// ListRequest - POST /api/s3/list
type ListRequest struct {
	Prefix     *string `json:"prefix"`
	StartAfter string  `json:"startAfter"`
	Limit      int     `json:"limit"`
}

type ListResponse struct {
	Keys []string `json:"keys"`
	Next string   `json:"next,omitempty"`
}

// ClearRequest - POST /api/s3/clear; prefix vắng -> prefix mặc định
type ClearRequest struct {
	Prefix *string `json:"prefix"`
}

type ClearResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteResponse: presign mode -> URL; direct mode -> OK + Key
type DeleteResponse struct {
	URL string `json:"url,omitempty"`
	OK  bool   `json:"ok,omitempty"`
	Key string `json:"key,omitempty"`
}
