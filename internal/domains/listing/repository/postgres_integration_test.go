package repository

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-api/internal/domains/listing"
	"market-api/internal/shared/testutil"
)

func newListing(owner, title, brand string, price int64) *listing.Listing {
	return &listing.Listing{
		Title:    title,
		Category: listing.CategoryCar,
		Price:    decimal.NewFromInt(price),
		Currency: listing.DefaultCurrency,
		Make:     &brand,
		Images:   []string{"uploads/" + owner + "/a.jpg"},
		OwnerID:  owner,
		Active:   true,
	}
}

func listQuery(t *testing.T, raw string) listing.ListQuery {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := listing.ParseListQuery(values, listing.SearchFullText)
	require.NoError(t, err)
	return q
}

func TestPostgresRepositoryCRUD(t *testing.T) {
	pool := testutil.NewPostgres(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	owner := testutil.InsertUser(t, pool, "owner@example.com")

	l := newListing(owner, "BMW E46 330i", "BMW", 3900)
	require.NoError(t, repo.Create(ctx, l))
	_, err := uuid.Parse(l.ID)
	require.NoError(t, err)
	assert.False(t, l.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "BMW E46 330i", got.Title)
	assert.True(t, decimal.NewFromInt(3900).Equal(got.Price))
	assert.Equal(t, l.Images, got.Images)
	assert.Equal(t, owner, got.OwnerID)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, listing.ErrListingNotFound)
	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, listing.ErrListingNotFound)

	price := decimal.NewFromInt(3500)
	updated, err := repo.Update(ctx, l.ID, owner, listing.UpdateListingRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "BMW E46 330i", updated.Title)

	deleted, err := repo.Delete(ctx, l.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, l.Images, deleted.Images)

	_, err = repo.GetByID(ctx, l.ID)
	assert.ErrorIs(t, err, listing.ErrListingNotFound)
}

func TestPostgresRepositoryConcurrentNonOwnerUpdates(t *testing.T) {
	pool := testutil.NewPostgres(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	owner := testutil.InsertUser(t, pool, "owner@example.com")
	intruder := testutil.InsertUser(t, pool, "intruder@example.com")

	l := newListing(owner, "Original", "BMW", 1000)
	require.NoError(t, repo.Create(ctx, l))

	title := "Hijacked"
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Update(ctx, l.ID, intruder, listing.UpdateListingRequest{Title: &title})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, listing.ErrListingNotFound)
	}

	_, err := repo.Delete(ctx, l.ID, intruder)
	assert.ErrorIs(t, err, listing.ErrListingNotFound)

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)
	assert.Equal(t, l.UpdatedAt.UnixMicro(), got.UpdatedAt.UnixMicro())
}

func TestPostgresRepositoryListFiltersAndPages(t *testing.T) {
	pool := testutil.NewPostgres(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	owner := testutil.InsertUser(t, pool, "owner@example.com")

	for _, p := range []int64{250, 3900, 4500, 7200} {
		require.NoError(t, repo.Create(ctx, newListing(owner, "BMW listing", "BMW", p)))
	}
	require.NoError(t, repo.Create(ctx, newListing(owner, "Audi listing", "Audi", 100)))

	items, total, err := repo.List(ctx, listQuery(t, "make=BMW&priceMax=5000&page=1&limit=2&sort=price&order=asc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "250", items[0].Price.String())
	assert.Equal(t, "3900", items[1].Price.String())

	items, total, err = repo.List(ctx, listQuery(t, "make=BMW&priceMax=5000&page=2&limit=2&sort=price&order=asc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "4500", items[0].Price.String())

	items, total, err = repo.List(ctx, listQuery(t, "make=BMW&page=9"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Empty(t, items)

	items, _, err = repo.List(ctx, listQuery(t, "q=audi"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Audi listing", items[0].Title)
}

func TestPostgresRepositoryListHidesInactive(t *testing.T) {
	pool := testutil.NewPostgres(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()
	owner := testutil.InsertUser(t, pool, "owner@example.com")

	l := newListing(owner, "Sold car", "BMW", 900)
	require.NoError(t, repo.Create(ctx, l))
	inactive := false
	_, err := repo.Update(ctx, l.ID, owner, listing.UpdateListingRequest{Active: &inactive})
	require.NoError(t, err)

	_, total, err := repo.List(ctx, listQuery(t, ""))
	require.NoError(t, err)
	assert.Zero(t, total)
}
