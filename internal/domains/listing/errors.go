package listing

import (
	"errors"
	"net/http"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrUnknownFilter   = errors.New("unknown filter parameter")
	ErrInvalidSort     = errors.New("invalid sort parameter")
	ErrInvalidListing  = errors.New("invalid listing")
)

// ErrorStatus map sentinel error -> HTTP status (không có trong map = 500)
var ErrorStatus = map[error]int{
	ErrListingNotFound: http.StatusNotFound,
	ErrUnknownFilter:   http.StatusBadRequest,
	ErrInvalidSort:     http.StatusBadRequest,
	ErrInvalidListing:  http.StatusBadRequest,
}
