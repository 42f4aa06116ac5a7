package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"market-api/internal/config"
	"market-api/internal/domains/upload"
	"market-api/internal/infrastructure/storage"
	"market-api/internal/shared/utils"
)

// ObjectStore là phần của *storage.MinIOStorage mà broker dùng
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignDelete(ctx context.Context, key string, expiry time.Duration) (string, error)
	ListKeys(ctx context.Context, prefix, startAfter string, limit int) ([]string, string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	RemoveObject(ctx context.Context, key string) error
	GetObject(ctx context.Context, key string) (*storage.Object, error)
}

// uploadService ký URL cho object store; store == nil nghĩa là chưa cấu hình S3
type uploadService struct {
	store ObjectStore
	cfg   config.S3Config

	now   func() time.Time
	token func() string
}

func NewUploadService(store ObjectStore, cfg config.S3Config) upload.Service {
	return &uploadService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		token: randomToken,
	}
}

// ========================= PRESIGN PUT =====================

// Presign kiểm tra request trước khi gọi store
// Key: <prefix>/<userID>/<unixMillis>-<random8>-<slug>.<ext>
func (s *uploadService) Presign(ctx context.Context, callerID string, req upload.PresignRequest) (*upload.PresignResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, upload.ErrStorageNotConfigured
	}

	contentType := strings.ToLower(req.ContentType)
	slug, _ := utils.SplitFilename(req.Name())
	key := fmt.Sprintf("%s%d-%s-%s.%s",
		s.namespace(callerID), s.now().UnixMilli(), s.token(), slug, upload.AllowedContentTypes[contentType])

	url, err := s.store.PresignPut(ctx, key, contentType, s.cfg.PresignExpiry)
	if err != nil {
		return nil, err
	}

	return &upload.PresignResponse{
		URL:       url,
		Key:       key,
		ExpiresIn: int(s.cfg.PresignExpiry.Seconds()),
	}, nil
}

// ========================= VIEW / PROXY =====================

func (s *uploadService) ViewURL(ctx context.Context, callerID, key string) (*upload.URLResponse, error) {
	key, err := s.checkKey(callerID, key)
	if err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, key, s.cfg.PresignExpiry)
	if err != nil {
		return nil, err
	}
	return &upload.URLResponse{URL: url}, nil
}

// Open mở object để proxy; caller phải Close Body
func (s *uploadService) Open(ctx context.Context, callerID, key string) (*storage.Object, error) {
	key, err := s.checkKey(callerID, key)
	if err != nil {
		return nil, err
	}
	return s.store.GetObject(ctx, key)
}

// ========================= LIST / CLEAR =====================

func (s *uploadService) List(ctx context.Context, callerID string, req upload.ListRequest) (*upload.ListResponse, error) {
	if s.store == nil {
		return nil, upload.ErrStorageNotConfigured
	}

	prefix := s.defaultPrefix(callerID)
	if req.Prefix != nil {
		prefix = strings.TrimLeft(*req.Prefix, "/")
	}
	if !s.allowed(callerID, prefix) {
		return nil, upload.ErrObjectNotFound
	}

	limit := req.Limit
	switch {
	case limit <= 0:
		limit = upload.DefaultListLimit
	case limit > upload.MaxListLimit:
		limit = upload.MaxListLimit
	}

	keys, next, err := s.store.ListKeys(ctx, prefix, req.StartAfter, limit)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return &upload.ListResponse{Keys: keys, Next: next}, nil
}

// Clear xóa toàn bộ object dưới prefix (luôn kết thúc bằng "/")
func (s *uploadService) Clear(ctx context.Context, callerID string, req upload.ClearRequest) (*upload.ClearResponse, error) {
	if s.store == nil {
		return nil, upload.ErrStorageNotConfigured
	}

	prefix := s.defaultPrefix(callerID)
	if req.Prefix != nil {
		prefix = *req.Prefix
	}
	// Prefix rỗng (kể cả default khi S3_KEY_PREFIX rỗng) sẽ xóa cả bucket
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, upload.ErrEmptyPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !s.allowed(callerID, prefix) {
		return nil, upload.ErrObjectNotFound
	}

	deleted, err := s.store.DeletePrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return &upload.ClearResponse{Deleted: deleted}, nil
}

// ========================= DELETE =====================

// Delete: presign mode trả URL DELETE đã ký; direct mode xóa ngay
func (s *uploadService) Delete(ctx context.Context, callerID, key string) (*upload.DeleteResponse, error) {
	key, err := s.checkKey(callerID, key)
	if err != nil {
		return nil, err
	}

	if s.cfg.DeleteMode == config.DeleteModeDirect {
		if err := s.store.RemoveObject(ctx, key); err != nil {
			return nil, err
		}
		return &upload.DeleteResponse{OK: true, Key: key}, nil
	}

	url, err := s.store.PresignDelete(ctx, key, s.cfg.PresignExpiry)
	if err != nil {
		return nil, err
	}
	return &upload.DeleteResponse{URL: url}, nil
}

// ============================================
// HELPERS
// ============================================

// checkKey bỏ "/" ở đầu, kiểm tra key không rỗng và nằm trong namespace (nếu bật)
func (s *uploadService) checkKey(callerID, key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: key", upload.ErrMissingField)
	}
	if s.store == nil {
		return "", upload.ErrStorageNotConfigured
	}
	if !s.allowed(callerID, key) {
		return "", upload.ErrObjectNotFound
	}
	return key, nil
}

// namespace = <prefix>/<callerID>/
func (s *uploadService) namespace(callerID string) string {
	if s.cfg.KeyPrefix == "" {
		return callerID + "/"
	}
	return s.cfg.KeyPrefix + "/" + callerID + "/"
}

func (s *uploadService) defaultPrefix(callerID string) string {
	if s.cfg.EnforceOwnerPrefix {
		return s.namespace(callerID)
	}
	if s.cfg.KeyPrefix == "" {
		return ""
	}
	return s.cfg.KeyPrefix + "/"
}

// allowed: khi bật EnforceOwnerPrefix, key/prefix phải nằm dưới namespace của caller
func (s *uploadService) allowed(callerID, keyOrPrefix string) bool {
	if !s.cfg.EnforceOwnerPrefix {
		return true
	}
	return callerID != "" && strings.HasPrefix(keyOrPrefix, s.namespace(callerID))
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
