package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-api/internal/domains/listing"
	"market-api/internal/domains/listing/service"
	"market-api/internal/shared/middleware"
	"market-api/pkg/jwt"
)

// memoryRepo là repository in-memory đủ cho equality / range / bool constraints
type memoryRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]listing.Listing
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[string]listing.Listing{}}
}

func (r *memoryRepo) Create(_ context.Context, l *listing.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	l.ID = fmt.Sprintf("id-%d", r.seq)
	l.CreatedAt = time.Unix(int64(r.seq), 0).UTC()
	l.UpdatedAt = l.CreatedAt
	r.items[l.ID] = *l
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	return &l, nil
}

func (r *memoryRepo) Update(_ context.Context, id, ownerID string, req listing.UpdateListingRequest) (*listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok || l.OwnerID != ownerID {
		return nil, listing.ErrListingNotFound
	}
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	r.items[id] = l
	return &l, nil
}

func (r *memoryRepo) Delete(_ context.Context, id, ownerID string) (*listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok || l.OwnerID != ownerID {
		return nil, listing.ErrListingNotFound
	}
	delete(r.items, id)
	return &l, nil
}

func (r *memoryRepo) List(_ context.Context, q listing.ListQuery) ([]listing.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []listing.Listing
	for _, l := range r.items {
		if matches(l, q.Filter) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Price.LessThan(matched[j].Price) })

	total := int64(len(matched))
	start := q.Page.Skip()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matches(l listing.Listing, f listing.Filter) bool {
	for _, c := range f.Constraints {
		switch {
		case c.Kind == listing.KindEqual && c.Attr == listing.AttrMake:
			if l.Make == nil || *l.Make != c.Value {
				return false
			}
		case c.Kind == listing.KindRange && c.Attr == listing.AttrPrice:
			if c.Min != nil && l.Price.LessThan(*c.Min) {
				return false
			}
			if c.Max != nil && l.Price.GreaterThan(*c.Max) {
				return false
			}
		case c.Kind == listing.KindBool && c.Attr == listing.AttrActive:
			if l.Active != c.Value.(bool) {
				return false
			}
		}
	}
	return true
}

type testEnv struct {
	router *gin.Engine
	repo   *memoryRepo
	tokens *jwt.Manager
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	repo := newMemoryRepo()
	tokens := jwt.NewManager("test-secret", time.Hour)
	h := NewHandler(service.NewService(repo, nil, time.Minute, nil), listing.SearchFullText)

	r := gin.New()
	api := r.Group("/api/listings")
	api.GET("", h.ListListings)
	api.GET("/:id", h.GetListing)
	authed := api.Group("", middleware.AuthMiddleware(tokens))
	authed.POST("", h.CreateListing)
	authed.PUT("/:id", h.UpdateListing)
	authed.DELETE("/:id", h.DeleteListing)

	return &testEnv{router: r, repo: repo, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := e.tokens.GenerateAccessToken(userID, userID+"@example.com")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, owner, brand string, price int64) string {
	t.Helper()
	l := &listing.Listing{
		Title:    brand + " listing",
		Category: listing.CategoryCar,
		Price:    decimal.NewFromInt(price),
		Currency: listing.DefaultCurrency,
		Make:     &brand,
		Images:   []string{},
		OwnerID:  owner,
		Active:   true,
	}
	require.NoError(t, e.repo.Create(context.Background(), l))
	return l.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestListBMWUnderPriceCap(t *testing.T) {
	env := newTestEnv()
	for _, p := range []int64{250, 3900, 4500, 7200} {
		env.seed(t, "owner", "BMW", p)
	}
	env.seed(t, "owner", "Audi", 100)

	w := env.do(t, http.MethodGet, "/api/listings?make=BMW&priceMax=5000&page=1&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Items []struct {
			Price float64 `json:"price"`
		} `json:"items"`
		Total int64 `json:"total"`
		Page  int   `json:"page"`
		Pages int   `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 250.0, res.Items[0].Price)
	assert.Equal(t, 3900.0, res.Items[1].Price)
}

func TestListRejectsUnknownFilterAndSort(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/api/listings?colour=red", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "colour")

	w = env.do(t, http.MethodGet, "/api/listings?sort=password", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEmptyHasOnePage(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0,"page":1,"pages":1}`, w.Body.String())
}

func TestCreateRequiresAuthAndForcesOwner(t *testing.T) {
	env := newTestEnv()
	body := map[string]any{"title": "Coilovers", "price": 250, "category": "part", "owner": "someone-else", "seller": "x"}

	w := env.do(t, http.MethodPost, "/api/listings", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/listings", "alice", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created listing.Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice", created.OwnerID)
	assert.Equal(t, listing.CategoryPart, created.Category)
}

func TestCreateValidationIs400(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/listings", "alice", map[string]any{"price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decodeError(t, w))
}

func TestGetByIDIsPublic(t *testing.T) {
	env := newTestEnv()
	id := env.seed(t, "alice", "BMW", 100)

	w := env.do(t, http.MethodGet, "/api/listings/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/listings/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "listing not found", decodeError(t, w))
}

func TestNonOwnerUpdateAndDeleteAre404(t *testing.T) {
	env := newTestEnv()
	id := env.seed(t, "alice", "BMW", 100)

	w := env.do(t, http.MethodPut, "/api/listings/"+id, "mallory", map[string]any{"title": "mine now"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/listings/"+id, "mallory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err := env.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "BMW listing", got.Title)
}

func TestOwnerUpdateAndDelete(t *testing.T) {
	env := newTestEnv()
	id := env.seed(t, "alice", "BMW", 100)

	w := env.do(t, http.MethodPut, "/api/listings/"+id, "alice", map[string]any{"price": 90})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":90`)

	w = env.do(t, http.MethodDelete, "/api/listings/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/listings/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedBodyIs400(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/api/listings", bytes.NewBufferString("{"))
	token, err := env.tokens.GenerateAccessToken("alice", "alice@example.com")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
