package listing

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage giữ (page-1)*limit trong int32 với mọi limit hợp lệ
	MaxPage = 1_000_000
)

// SortField là các cột được phép sort
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortPrice     SortField = "price"
	SortYear      SortField = "year"
	SortMileage   SortField = "mileage"
	SortTitle     SortField = "title"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// PageRequest là trang đã được chuẩn hóa: 1 <= Page <= MaxPage, 1 <= Limit <= MaxLimit
type PageRequest struct {
	Page  int
	Limit int
	Sort  SortField
	Order SortOrder
}

// Skip = (page-1) * limit
func (p PageRequest) Skip() int {
	return (p.Page - 1) * p.Limit
}

func (p PageRequest) Key() string {
	return fmt.Sprintf("page=%d|limit=%d|sort=%s|order=%s", p.Page, p.Limit, p.Sort, p.Order)
}

// ParsePageRequest clamp page/limit và kiểm tra sort/order
// page, limit không parse được -> default; sort/order lạ -> ErrInvalidSort
func ParsePageRequest(values url.Values) (PageRequest, error) {
	p := PageRequest{
		Page:  1,
		Limit: DefaultLimit,
		Sort:  SortCreatedAt,
		Order: OrderDesc,
	}

	if n, err := strconv.Atoi(get(values, FieldPage)); err == nil {
		p.Page = clamp(n, 1, MaxPage)
	}

	if n, err := strconv.Atoi(get(values, FieldLimit)); err == nil {
		p.Limit = clamp(n, 1, MaxLimit)
	}

	if raw := get(values, FieldSort); raw != "" {
		switch s := SortField(raw); s {
		case SortCreatedAt, SortPrice, SortYear, SortMileage, SortTitle:
			p.Sort = s
		default:
			return PageRequest{}, fmt.Errorf("%w: sort=%q", ErrInvalidSort, raw)
		}
	}

	if raw := get(values, FieldOrder); raw != "" {
		switch o := SortOrder(raw); o {
		case OrderAsc, OrderDesc:
			p.Order = o
		default:
			return PageRequest{}, fmt.Errorf("%w: order=%q", ErrInvalidSort, raw)
		}
	}

	return p, nil
}

// PageCount = max(1, ceil(total/limit))
func PageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// NewListResult build envelope từ một trang items
func NewListResult(items []Listing, total int64, p PageRequest) ListResult {
	if items == nil {
		items = []Listing{}
	}
	return ListResult{
		Items: items,
		Total: total,
		Page:  p.Page,
		Pages: PageCount(total, p.Limit),
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
