package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"market-api/internal/config"
)

// DeleteBatchSize là số key tối đa mỗi lần batch delete (giới hạn của S3)
const DeleteBatchSize = 1000

// Object là object đọc từ store kèm metadata cần cho proxy
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// MinIOStorage bọc minio.Client cho một bucket (S3 hoặc MinIO)
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage khởi tạo MinIO client
// Region được set sẵn nên presign không cần gọi mạng để dò bucket location
func NewMinIOStorage(cfg config.S3Config) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket tạo bucket nếu chưa có (dùng cho MinIO local)
func (s *MinIOStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PresignPut ký URL PUT; Content-Type nằm trong chữ ký nên client phải gửi đúng header đó
func (s *MinIOStorage) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, expiry, nil, headers)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}

// PresignGet ký URL GET
func (s *MinIOStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

// PresignDelete ký URL DELETE
func (s *MinIOStorage) PresignDelete(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.Presign(ctx, http.MethodDelete, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign delete %s: %w", key, err)
	}
	return u.String(), nil
}

// ListKeys trả về tối đa limit key dưới prefix (bỏ qua folder marker "x/")
// next != "" nghĩa là còn key, dùng làm startAfter cho trang sau
func (s *MinIOStorage) ListKeys(ctx context.Context, prefix, startAfter string, limit int) ([]string, string, error) {
	// Cancel để goroutine listing của minio dừng khi đã đủ key
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectsCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:     prefix,
		StartAfter: startAfter,
		Recursive:  true,
	})

	keys := make([]string, 0, limit)
	for object := range objectsCh {
		if object.Err != nil {
			return nil, "", fmt.Errorf("list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		if len(keys) == limit {
			return keys, keys[len(keys)-1], nil
		}
		keys = append(keys, object.Key)
	}

	return keys, "", nil
}

// DeletePrefix xóa mọi object dưới prefix theo từng batch, trả về số object đã xóa
func (s *MinIOStorage) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	for {
		batch, err := s.firstKeys(ctx, prefix, DeleteBatchSize)
		if err != nil {
			return deleted, err
		}
		if len(batch) == 0 {
			return deleted, nil
		}
		if err := s.RemoveObjects(ctx, batch); err != nil {
			return deleted, err
		}
		deleted += len(batch)
	}
}

func (s *MinIOStorage) firstKeys(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectsCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   limit,
	})

	keys := make([]string, 0, limit)
	for object := range objectsCh {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects: %w", object.Err)
		}
		keys = append(keys, object.Key)
		if len(keys) == limit {
			break
		}
	}
	return keys, nil
}

// RemoveObject xóa một object
func (s *MinIOStorage) RemoveObject(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// RemoveObjects xóa nhiều objects cùng lúc
func (s *MinIOStorage) RemoveObjects(ctx context.Context, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	errorCh := s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{})

	var errs []error
	for rmErr := range errorCh {
		if rmErr.Err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", rmErr.ObjectName, rmErr.Err))
		}
	}
	return errors.Join(errs...)
}

// GetObject mở object để stream; caller phải Close Body
func (s *MinIOStorage) GetObject(ctx context.Context, key string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	// GetObject lazy: Stat buộc request đi và trả lỗi (NoSuchKey...) sớm
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}

	return &Object{
		Body:        obj,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// StatusFromError lấy HTTP status và message mà store trả về (nếu có)
func StatusFromError(err error) (int, string, bool) {
	resp := minio.ToErrorResponse(unwrapAll(err))
	if resp.StatusCode == 0 {
		return 0, "", false
	}
	msg := resp.Message
	if msg == "" {
		msg = resp.Code
	}
	return resp.StatusCode, msg, true
}

// minio.ToErrorResponse chỉ type-assert, không errors.As, nên phải unwrap trước
func unwrapAll(err error) error {
	var target minio.ErrorResponse
	if errors.As(err, &target) {
		return target
	}
	return err
}
