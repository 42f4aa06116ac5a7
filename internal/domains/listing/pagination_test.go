package listing

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePage(t *testing.T, raw string) PageRequest {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	p, err := ParsePageRequest(values)
	require.NoError(t, err)
	return p
}

func TestParsePageRequestDefaults(t *testing.T) {
	p := parsePage(t, "")
	assert.Equal(t, PageRequest{Page: 1, Limit: DefaultLimit, Sort: SortCreatedAt, Order: OrderDesc}, p)
	assert.Equal(t, 0, p.Skip())
}

func TestParsePageRequestClamps(t *testing.T) {
	tests := []struct {
		raw       string
		wantPage  int
		wantLimit int
	}{
		{"page=0&limit=0", 1, 1},
		{"page=-3&limit=-1", 1, 1},
		{"page=abc&limit=abc", 1, DefaultLimit},
		{"page=3&limit=1000", 3, MaxLimit},
		{"page=2&limit=2", 2, 2},
		{"page=9223372036854775807&limit=20", MaxPage, 20},
		{"page=99999999999999999999", 1, DefaultLimit},
	}
	for _, tt := range tests {
		p := parsePage(t, tt.raw)
		assert.Equal(t, tt.wantPage, p.Page, tt.raw)
		assert.Equal(t, tt.wantLimit, p.Limit, tt.raw)
	}
}

func TestSkip(t *testing.T) {
	assert.Equal(t, 40, parsePage(t, "page=3&limit=20").Skip())
}

func TestSkipNeverOverflows(t *testing.T) {
	p := parsePage(t, "page=9223372036854775807&limit=100")
	assert.Equal(t, (MaxPage-1)*MaxLimit, p.Skip())
	assert.Positive(t, p.Skip())
	assert.LessOrEqual(t, p.Skip(), math.MaxInt32)
}

func TestParsePageRequestSortWhitelist(t *testing.T) {
	p := parsePage(t, "sort=price&order=asc")
	assert.Equal(t, SortPrice, p.Sort)
	assert.Equal(t, OrderAsc, p.Order)

	for _, raw := range []string{"sort=password", "sort=price;drop", "order=sideways"} {
		values, _ := url.ParseQuery(raw)
		_, err := ParsePageRequest(values)
		assert.ErrorIs(t, err, ErrInvalidSort, raw)
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 20))
	assert.Equal(t, 1, PageCount(20, 20))
	assert.Equal(t, 2, PageCount(21, 20))
	assert.Equal(t, 2, PageCount(3, 2))
	assert.Equal(t, 100, PageCount(10000, 100))
}

func TestNewListResult(t *testing.T) {
	res := NewListResult(nil, 3, PageRequest{Page: 2, Limit: 2})
	assert.NotNil(t, res.Items)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.Pages)
}

func TestParseListQuery(t *testing.T) {
	values, _ := url.ParseQuery("q=bmw&page=2&limit=2")
	q, err := ParseListQuery(values, SearchFullText)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Page.Page)
	assert.True(t, q.Filter.Has(KindText, ""))

	values, _ = url.ParseQuery("sort=nope")
	_, err = ParseListQuery(values, SearchFullText)
	assert.ErrorIs(t, err, ErrInvalidSort)
}
