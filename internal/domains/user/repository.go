package user

import "context"

// Repository - data access cho users (Postgres hoặc Mongo)
type Repository interface {
	// Create gán ID/timestamps; email trùng -> ErrEmailAlreadyExists
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
