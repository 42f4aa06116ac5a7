package listing

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// price trả về dạng số JSON (250 thay vì "250")
	decimal.MarshalJSONWithoutQuotes = true
}

// Category là tập đóng car | part | other
type Category string

const (
	CategoryCar   Category = "car"
	CategoryPart  Category = "part"
	CategoryOther Category = "other"
)

const DefaultCurrency = "GBP"

// ParseCategory trả về false nếu s không thuộc tập category
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryCar, CategoryPart, CategoryOther:
		return c, true
	}
	return "", false
}

// Listing - entity rao bán (xe, phụ tùng...)
type Listing struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Make        *string         `json:"make,omitempty"`
	Model       *string         `json:"model,omitempty"`
	Year        *int            `json:"year,omitempty"`
	Mileage     *int            `json:"mileage,omitempty"`
	Location    *string         `json:"location,omitempty"`
	Images      []string        `json:"images"`
	OwnerID     string          `json:"ownerId"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ListResult là envelope của GET /api/listings
type ListResult struct {
	Items []Listing `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
}
