package listing

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// MaxImages là số ảnh tối đa mỗi listing
const MaxImages = 20

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ListQuery = Filter + trang, input của Service.List
type ListQuery struct {
	Filter Filter
	Page   PageRequest
}

// ParseListQuery chạy filter builder rồi pagination engine trên cùng query string
func ParseListQuery(values url.Values, mode SearchMode) (ListQuery, error) {
	filter, err := BuildFilter(values, mode)
	if err != nil {
		return ListQuery{}, err
	}
	page, err := ParsePageRequest(values)
	if err != nil {
		return ListQuery{}, err
	}
	return ListQuery{Filter: filter, Page: page}, nil
}

// Key là chuỗi ổn định cho cache key
func (q ListQuery) Key() string {
	return q.Filter.Key() + "#" + q.Page.Key()
}

// CreateListingRequest - body của POST /api/listings
// Không có field owner: owner luôn là user đang đăng nhập
type CreateListingRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Category    string           `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Currency    string           `json:"currency"`
	Make        *string          `json:"make"`
	Model       *string          `json:"model"`
	Year        *int             `json:"year"`
	Mileage     *int             `json:"mileage"`
	Location    *string          `json:"location"`
	Images      []string         `json:"images"`
}

func (r CreateListingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.By(notBlank),
			validation.RuneLength(1, 200),
		),
		validation.Field(&r.Price,
			validation.Required.Error("price is required"),
			validation.By(nonNegativePrice),
		),
		validation.Field(&r.Category, validation.By(knownCategory)),
		validation.Field(&r.Currency, validation.Match(currencyCode).Error("currency must be an ISO 4217 code")),
		validation.Field(&r.Description, validation.NilOrNotEmpty, validation.RuneLength(0, 5000)),
		validation.Field(&r.Year, validation.Min(1886), validation.Max(2100)),
		validation.Field(&r.Mileage, validation.Min(0)),
		validation.Field(&r.Images, validation.By(validImages)),
	)
}

// ToListing build entity; owner được service gán
func (r CreateListingRequest) ToListing(ownerID string) *Listing {
	category := CategoryCar
	if c, ok := ParseCategory(r.Category); ok {
		category = c
	}
	currency := r.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	images := r.Images
	if images == nil {
		images = []string{}
	}

	return &Listing{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Category:    category,
		Price:       *r.Price,
		Currency:    currency,
		Make:        r.Make,
		Model:       r.Model,
		Year:        r.Year,
		Mileage:     r.Mileage,
		Location:    r.Location,
		Images:      images,
		OwnerID:     ownerID,
		Active:      true,
	}
}

// UpdateListingRequest - partial update, nil = giữ nguyên
// id, owner và timestamps không thể cập nhật
type UpdateListingRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Currency    *string          `json:"currency"`
	Make        *string          `json:"make"`
	Model       *string          `json:"model"`
	Year        *int             `json:"year"`
	Mileage     *int             `json:"mileage"`
	Location    *string          `json:"location"`
	Images      *[]string        `json:"images"`
	Active      *bool            `json:"active"`
}

func (r UpdateListingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.NilOrNotEmpty.Error("title cannot be empty"),
			validation.By(notBlank),
			validation.RuneLength(1, 200),
		),
		validation.Field(&r.Price, validation.By(nonNegativePrice)),
		validation.Field(&r.Category,
			validation.NilOrNotEmpty.Error("category cannot be empty"),
			validation.By(knownCategory),
		),
		validation.Field(&r.Currency,
			validation.NilOrNotEmpty.Error("currency cannot be empty"),
			validation.Match(currencyCode).Error("currency must be an ISO 4217 code"),
		),
		validation.Field(&r.Description, validation.RuneLength(0, 5000)),
		validation.Field(&r.Year, validation.Min(1886), validation.Max(2100)),
		validation.Field(&r.Mileage, validation.Min(0)),
		validation.Field(&r.Images, validation.By(validImages)),
	)
}

// IsEmpty báo request không đổi field nào
func (r UpdateListingRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Category == nil && r.Price == nil &&
		r.Currency == nil && r.Make == nil && r.Model == nil && r.Year == nil &&
		r.Mileage == nil && r.Location == nil && r.Images == nil && r.Active == nil
}

func notBlank(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func nonNegativePrice(value interface{}) error {
	var d *decimal.Decimal
	switch v := value.(type) {
	case *decimal.Decimal:
		d = v
	case decimal.Decimal:
		d = &v
	}
	if d != nil && d.IsNegative() {
		return errors.New("price must be >= 0")
	}
	return nil
}

func validImages(value interface{}) error {
	var images []string
	switch v := value.(type) {
	case []string:
		images = v
	case *[]string:
		if v == nil {
			return nil
		}
		images = *v
	}
	if len(images) > MaxImages {
		return fmt.Errorf("at most %d images", MaxImages)
	}
	for _, img := range images {
		if strings.TrimSpace(img) == "" || len(img) > 1024 {
			return errors.New("image entries must be non-empty keys or URLs")
		}
	}
	return nil
}

func knownCategory(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	}
	if s == "" {
		return nil
	}
	if _, ok := ParseCategory(s); !ok {
		return errors.New("category must be one of car, part, other")
	}
	return nil
}
