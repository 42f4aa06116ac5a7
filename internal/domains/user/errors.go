package user

import (
	"errors"
	"net/http"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// ErrorStatus map sentinel error -> HTTP status
var ErrorStatus = map[error]int{
	ErrEmailAlreadyExists: http.StatusConflict,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrInvalidInput:       http.StatusBadRequest,
	ErrUserNotFound:       http.StatusNotFound,
}
