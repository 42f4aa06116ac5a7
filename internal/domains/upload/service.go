package upload

import (
	"context"

	"market-api/internal/infrastructure/storage"
)

type Service interface {
	Presign(ctx context.Context, callerID string, req PresignRequest) (*PresignResponse, error)
	ViewURL(ctx context.Context, callerID, key string) (*URLResponse, error)
	List(ctx context.Context, callerID string, req ListRequest) (*ListResponse, error)
	Clear(ctx context.Context, callerID string, req ClearRequest) (*ClearResponse, error)
	Delete(ctx context.Context, callerID, key string) (*DeleteResponse, error)
	Open(ctx context.Context, callerID, key string) (*storage.Object, error)
}
