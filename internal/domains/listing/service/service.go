package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"market-api/internal/domains/listing"
	types "market-api/internal/shared"
	"market-api/pkg/cache"
	"market-api/pkg/logger"
)

const (
	listCachePrefix  = "listings:list:"
	listCachePattern = "listings:*"
)

// TaskEnqueuer là phần của *asynq.Client mà service cần
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ListingService - business logic cho listings
// cache và tasks có thể nil (chạy không Redis)
type ListingService struct {
	repo     listing.Repository
	cache    cache.Cache
	cacheTTL time.Duration
	tasks    TaskEnqueuer
}

func NewService(repo listing.Repository, c cache.Cache, cacheTTL time.Duration, tasks TaskEnqueuer) *ListingService {
	return &ListingService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		tasks:    tasks,
	}
}

var _ listing.Service = (*ListingService)(nil)

// ========================= CREATE =====================

// Create gán owner là user đang đăng nhập, bỏ qua mọi owner client gửi lên
func (s *ListingService) Create(ctx context.Context, ownerID string, req listing.CreateListingRequest) (*listing.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrInvalidListing, err)
	}

	l := req.ToListing(ownerID)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.invalidateList(ctx)
	return l, nil
}

// ========================= READ =====================

// Get không giới hạn theo owner: ai cũng đọc được listing
func (s *ListingService) Get(ctx context.Context, id string) (*listing.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ListingService) List(ctx context.Context, q listing.ListQuery) (*listing.ListResult, error) {
	key := listCacheKey(q)

	if s.cache != nil {
		var cached listing.ListResult
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("listing cache get failed", err)
		} else if found {
			return &cached, nil
		}
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	result := listing.NewListResult(items, total, q.Page)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			logger.Warn("listing cache set failed", err)
		}
	}
	return &result, nil
}

// ========================= UPDATE / DELETE =====================

// Update: listing của người khác trả về ErrListingNotFound giống như không tồn tại
func (s *ListingService) Update(ctx context.Context, id, ownerID string, req listing.UpdateListingRequest) (*listing.Listing, error) {
	if req.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", listing.ErrInvalidListing)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrInvalidListing, err)
	}

	l, err := s.repo.Update(ctx, id, ownerID, req)
	if err != nil {
		return nil, err
	}

	s.invalidateList(ctx)
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, id, ownerID string) error {
	l, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}

	s.invalidateList(ctx)
	s.enqueueImageCleanup(ctx, l)
	return nil
}

// ============================================
// HELPERS
// ============================================

func (s *ListingService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, listCachePattern); err != nil {
		logger.Warn("listing cache invalidation failed", err)
	}
}

// enqueueImageCleanup: lỗi enqueue chỉ log, listing đã bị xóa
func (s *ListingService) enqueueImageCleanup(ctx context.Context, l *listing.Listing) {
	if s.tasks == nil || len(l.Images) == 0 {
		return
	}

	payload, err := json.Marshal(types.DeleteListingImagesPayload{
		ListingID: l.ID,
		OwnerID:   l.OwnerID,
		Images:    l.Images,
	})
	if err != nil {
		logger.Error("marshal delete images payload", err)
		return
	}

	task := asynq.NewTask(types.TypeDeleteListingImages, payload)
	if _, err := s.tasks.EnqueueContext(ctx, task, asynq.Queue(types.QueueListing), asynq.MaxRetry(3)); err != nil {
		logger.Error("enqueue delete images task", err)
	}
}

func listCacheKey(q listing.ListQuery) string {
	sum := sha256.Sum256([]byte(q.Key()))
	return listCachePrefix + hex.EncodeToString(sum[:])
}

