package listing

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field là query parameter được chấp nhận trên GET /api/listings
type Field string

const (
	FieldQuery    Field = "q"
	FieldCategory Field = "category"
	FieldMake     Field = "make"
	FieldModel    Field = "model"
	FieldYear     Field = "year"
	FieldLocation Field = "location"
	FieldPriceMin Field = "priceMin"
	FieldMinPrice Field = "minPrice" // alias của priceMin
	FieldPriceMax Field = "priceMax"
	FieldMaxPrice Field = "maxPrice" // alias của priceMax
	FieldPart     Field = "part"

	// Paging / sort, đọc bởi ParsePageRequest
	FieldPage  Field = "page"
	FieldLimit Field = "limit"
	FieldSort  Field = "sort"
	FieldOrder Field = "order"
)

var knownFields = map[Field]struct{}{
	FieldQuery: {}, FieldCategory: {}, FieldMake: {}, FieldModel: {}, FieldYear: {},
	FieldLocation: {}, FieldPriceMin: {}, FieldMinPrice: {}, FieldPriceMax: {},
	FieldMaxPrice: {}, FieldPart: {}, FieldPage: {}, FieldLimit: {}, FieldSort: {},
	FieldOrder: {},
}

// Attr là thuộc tính của listing mà constraint áp lên (độc lập với store)
type Attr string

const (
	AttrCategory Attr = "category"
	AttrMake     Attr = "make"
	AttrModel    Attr = "model"
	AttrYear     Attr = "year"
	AttrLocation Attr = "location"
	AttrPrice    Attr = "price"
	AttrActive   Attr = "active"
)

// Kind là loại constraint
type Kind int

const (
	KindEqual Kind = iota + 1
	KindNotEqual
	KindRange
	KindText
	KindBool
)

// SearchMode quyết định cách q được áp dụng, cố định theo config
type SearchMode string

const (
	SearchFullText SearchMode = "fulltext"
	SearchRegex    SearchMode = "regex"
)

// Constraint là một điều kiện đã được kiểm tra kiểu
//   - KindEqual / KindNotEqual: Attr op Value (string | int)
//   - KindRange: Min <= Attr <= Max, mỗi đầu có thể nil
//   - KindText: Text khớp theo SearchMode
//   - KindBool: Attr = Value (bool)
type Constraint struct {
	Kind  Kind
	Attr  Attr
	Value any
	Min   *decimal.Decimal
	Max   *decimal.Decimal
	Text  string
}

// Filter là tập constraint (AND) cho một truy vấn listings
type Filter struct {
	Constraints []Constraint
	SearchMode  SearchMode
}

// BuildFilter dịch query string thành Filter
// Key lạ -> ErrUnknownFilter; giá trị không parse được -> bỏ qua (coi như vắng)
func BuildFilter(values url.Values, mode SearchMode) (Filter, error) {
	if err := rejectUnknown(values); err != nil {
		return Filter{}, err
	}
	if mode != SearchRegex {
		mode = SearchFullText
	}

	f := Filter{SearchMode: mode}

	if q := get(values, FieldQuery); q != "" {
		f.Constraints = append(f.Constraints, Constraint{Kind: KindText, Text: q})
	}

	if raw := get(values, FieldCategory); raw != "" {
		if c, ok := ParseCategory(strings.ToLower(raw)); ok {
			f.Constraints = append(f.Constraints, Constraint{Kind: KindEqual, Attr: AttrCategory, Value: string(c)})
		}
	}

	for _, eq := range []struct {
		field Field
		attr  Attr
	}{
		{FieldMake, AttrMake},
		{FieldModel, AttrModel},
		{FieldLocation, AttrLocation},
	} {
		if v := get(values, eq.field); v != "" {
			f.Constraints = append(f.Constraints, Constraint{Kind: KindEqual, Attr: eq.attr, Value: v})
		}
	}

	if raw := get(values, FieldYear); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			f.Constraints = append(f.Constraints, Constraint{Kind: KindEqual, Attr: AttrYear, Value: year})
		}
	}

	minPrice := parsePrice(values, FieldPriceMin, FieldMinPrice)
	maxPrice := parsePrice(values, FieldPriceMax, FieldMaxPrice)
	if minPrice != nil || maxPrice != nil {
		f.Constraints = append(f.Constraints, Constraint{Kind: KindRange, Attr: AttrPrice, Min: minPrice, Max: maxPrice})
	}

	switch get(values, FieldPart) {
	case "true":
		f.Constraints = append(f.Constraints, Constraint{Kind: KindEqual, Attr: AttrCategory, Value: string(CategoryPart)})
	case "false":
		f.Constraints = append(f.Constraints, Constraint{Kind: KindNotEqual, Attr: AttrCategory, Value: string(CategoryPart)})
	}

	f.Constraints = append(f.Constraints, Constraint{Kind: KindBool, Attr: AttrActive, Value: true})

	return f, nil
}

// Has báo filter có constraint loại kind trên attr không (KindText bỏ qua attr)
func (f Filter) Has(kind Kind, attr Attr) bool {
	for _, c := range f.Constraints {
		if c.Kind == kind && (kind == KindText || c.Attr == attr) {
			return true
		}
	}
	return false
}

// Key là chuỗi ổn định mô tả filter, dùng cho cache key
func (f Filter) Key() string {
	parts := make([]string, 0, len(f.Constraints)+1)
	parts = append(parts, "mode="+string(f.SearchMode))
	for _, c := range f.Constraints {
		switch c.Kind {
		case KindRange:
			parts = append(parts, fmt.Sprintf("%s:range:%s:%s", c.Attr, decimalKey(c.Min), decimalKey(c.Max)))
		case KindText:
			parts = append(parts, "text:"+c.Text)
		default:
			parts = append(parts, fmt.Sprintf("%s:%d:%v", c.Attr, c.Kind, c.Value))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func rejectUnknown(values url.Values) error {
	var unknown []string
	for key := range values {
		if _, ok := knownFields[Field(key)]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s", ErrUnknownFilter, strings.Join(unknown, ", "))
}

func get(values url.Values, field Field) string {
	return strings.TrimSpace(values.Get(string(field)))
}

// parsePrice lấy giá trị hợp lệ đầu tiên trong các alias
func parsePrice(values url.Values, fields ...Field) *decimal.Decimal {
	for _, field := range fields {
		raw := get(values, field)
		if raw == "" {
			continue
		}
		// decimal chấp nhận số mũ lớn; chặn các giá trị không hữu hạn trước
		if f, err := strconv.ParseFloat(raw, 64); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		return &d
	}
	return nil
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
