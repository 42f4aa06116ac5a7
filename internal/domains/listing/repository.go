package listing

import "context"

// Repository là data access của listings (Postgres hoặc Mongo)
// Update/Delete là một câu lệnh có điều kiện (id AND owner): không khớp -> ErrListingNotFound
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, id, ownerID string, req UpdateListingRequest) (*Listing, error)
	Delete(ctx context.Context, id, ownerID string) (*Listing, error)
	// List trả về một trang và total từ cùng một snapshot
	List(ctx context.Context, q ListQuery) ([]Listing, int64, error)
}

// Service là business logic của listings
type Service interface {
	Create(ctx context.Context, ownerID string, req CreateListingRequest) (*Listing, error)
	Get(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, id, ownerID string, req UpdateListingRequest) (*Listing, error)
	Delete(ctx context.Context, id, ownerID string) error
	List(ctx context.Context, q ListQuery) (*ListResult, error)
}
