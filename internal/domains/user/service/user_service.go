package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"market-api/internal/domains/user"
	"market-api/internal/shared/utils"
)

// BcryptCost cố định cho mọi password hash
const BcryptCost = 12

// TokenIssuer là phần của jwt.Manager cần để cấp token
type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
}

// userService implement user.Service
type userService struct {
	repo   user.Repository
	tokens TokenIssuer
	cost   int

	// hash của một secret ngẫu nhiên, so sánh khi email không tồn tại
	dummyHash []byte
}

func NewUserService(repo user.Repository, tokens TokenIssuer) (user.Service, error) {
	return newUserService(repo, tokens, BcryptCost)
}

func newUserService(repo user.Repository, tokens TokenIssuer, cost int) (*userService, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate dummy secret: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy secret: %w", err)
	}

	return &userService{
		repo:      repo,
		tokens:    tokens,
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// ========================================
// AUTHENTICATION
// ========================================

// Register: email trùng (pre-check hoặc unique index) -> ErrEmailAlreadyExists
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.RegisterResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", user.ErrInvalidInput, err)
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password is too long", user.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Phone:        req.Phone,
		Location:     req.Location,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user.RegisterResponse{ID: u.ID, Email: u.Email}, nil
}

// Login: email không tồn tại và sai password trả về cùng ErrInvalidCredentials
// Email không tồn tại vẫn chạy một lần bcrypt với dummy hash cùng cost
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, user.ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, user.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &user.LoginResponse{Token: token}, nil
}

