package user

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"market-api/internal/shared/utils"
)

// ========================================
// AUTH DTOs
// ========================================

// RegisterRequest - POST /api/auth/register
type RegisterRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"displayName"`
	Phone       *string `json:"phone"`
	Location    *string `json:"location"`
}

// Normalize trim + lower-case email trước khi validate/lưu
func (r *RegisterRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.DisplayName = utils.TrimmedOrNil(r.DisplayName)
	r.Phone = utils.TrimmedOrNil(r.Phone)
	r.Location = utils.TrimmedOrNil(r.Location)
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("invalid email format"),
			validation.Length(3, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be 8-128 characters"),
		),
		validation.Field(&r.DisplayName, validation.Length(0, 100)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
		validation.Field(&r.Location, validation.Length(0, 200)),
	)
}

// RegisterResponse - 201 {id, email}
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginRequest - POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse - {token}
type LoginResponse struct {
	Token string `json:"token"`
}
