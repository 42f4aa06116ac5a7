package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"market-api/internal/domains/listing"
	"market-api/internal/shared/utils"
	"market-api/pkg/database"
)

const listingColumns = `id, title, description, category, price, currency, make, model, year,
	mileage, location, images, owner_id, active, created_at, updated_at`

// postgresRepository - raw SQL với pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) listing.Repository {
	return &postgresRepository{pool: pool}
}

// ========================= CREATE =====================

func (r *postgresRepository) Create(ctx context.Context, l *listing.Listing) error {
	query := `
		INSERT INTO listings (title, description, category, price, currency, make, model,
		                      year, mileage, location, images, owner_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	if l.Images == nil {
		l.Images = []string{}
	}

	err := r.pool.QueryRow(ctx, query,
		l.Title, l.Description, string(l.Category), l.Price, l.Currency, l.Make, l.Model,
		l.Year, l.Mileage, l.Location, l.Images, l.OwnerID, l.Active,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// constraintError map vi phạm FK/CHECK -> ErrInvalidListing với message cố định
// Message của Postgres chỉ được log, không trả cho client
func constraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	var reason string
	switch pgErr.Code {
	case "23503":
		reason = "owner account does not exist"
	case "23514", "22001", "22003":
		reason = "a field value is out of range"
	default:
		return nil
	}

	log.Warn().
		Str("code", pgErr.Code).
		Str("constraint", pgErr.ConstraintName).
		Str("detail", pgErr.Message).
		Msg("listing write rejected by database")
	return fmt.Errorf("%w: %s", listing.ErrInvalidListing, reason)
}

// ========================= READ =====================

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*listing.Listing, error) {
	if !utils.IsValidUUID(id) {
		return nil, listing.ErrListingNotFound
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	l, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get listing")
	}
	return l, nil
}

// ========================= UPDATE =====================

// Update là một câu UPDATE có điều kiện owner: không khớp (thiếu hoặc của người khác) -> not found
func (r *postgresRepository) Update(ctx context.Context, id, ownerID string, req listing.UpdateListingRequest) (*listing.Listing, error) {
	if !utils.IsValidUUID(id) || !utils.IsValidUUID(ownerID) {
		return nil, listing.ErrListingNotFound
	}

	sets, args := buildUpdateSet(req)
	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE listings SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args)-1, len(args), listingColumns)

	l, err := scanListing(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return nil, cerr
		}
		return nil, notFoundOr(err, "failed to update listing")
	}
	return l, nil
}

// ========================= DELETE =====================

func (r *postgresRepository) Delete(ctx context.Context, id, ownerID string) (*listing.Listing, error) {
	if !utils.IsValidUUID(id) || !utils.IsValidUUID(ownerID) {
		return nil, listing.ErrListingNotFound
	}

	query := `DELETE FROM listings WHERE id = $1 AND owner_id = $2 RETURNING ` + listingColumns
	l, err := scanListing(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		return nil, notFoundOr(err, "failed to delete listing")
	}
	return l, nil
}

// ========================= LIST =====================

type page struct {
	items []listing.Listing
	total int64
}

// List chạy COUNT và SELECT trong cùng một transaction REPEATABLE READ để total khớp với items
func (r *postgresRepository) List(ctx context.Context, q listing.ListQuery) ([]listing.Listing, int64, error) {
	where, args := buildWhere(q.Filter)
	countQuery := `SELECT COUNT(*) FROM listings WHERE ` + where

	n := len(args)
	listQuery := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		listingColumns, where, orderBy(q.Page), n+1, n+2)
	listArgs := append(append([]any{}, args...), q.Page.Limit, q.Page.Skip())

	result, err := database.WithTransactionResult(ctx, r.pool, database.SnapshotRead, func(tx pgx.Tx) (page, error) {
		var p page
		if err := tx.QueryRow(ctx, countQuery, args...).Scan(&p.total); err != nil {
			return p, fmt.Errorf("count listings: %w", err)
		}
		if p.total == 0 || int64(q.Page.Skip()) >= p.total {
			p.items = []listing.Listing{}
			return p, nil
		}

		rows, err := tx.Query(ctx, listQuery, listArgs...)
		if err != nil {
			return p, fmt.Errorf("query listings: %w", err)
		}
		defer rows.Close()

		p.items = make([]listing.Listing, 0, q.Page.Limit)
		for rows.Next() {
			l, err := scanListing(rows)
			if err != nil {
				return p, fmt.Errorf("scan listing: %w", err)
			}
			p.items = append(p.items, *l)
		}
		return p, rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return result.items, result.total, nil
}

// ============================================
// HELPER METHODS
// ============================================

var attrColumns = map[listing.Attr]string{
	listing.AttrCategory: "category",
	listing.AttrMake:     "make",
	listing.AttrModel:    "model",
	listing.AttrYear:     "year",
	listing.AttrLocation: "location",
	listing.AttrPrice:    "price",
	listing.AttrActive:   "active",
}

var sortColumns = map[listing.SortField]string{
	listing.SortCreatedAt: "created_at",
	listing.SortPrice:     "price",
	listing.SortYear:      "year",
	listing.SortMileage:   "mileage",
	listing.SortTitle:     "title",
}

// buildWhere dịch Filter thành mệnh đề WHERE với placeholder $n
func buildWhere(f listing.Filter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range f.Constraints {
		col := attrColumns[c.Attr]
		switch c.Kind {
		case listing.KindEqual, listing.KindBool:
			conds = append(conds, fmt.Sprintf("%s = %s", col, arg(c.Value)))
		case listing.KindNotEqual:
			conds = append(conds, fmt.Sprintf("%s <> %s", col, arg(c.Value)))
		case listing.KindRange:
			if c.Min != nil {
				conds = append(conds, fmt.Sprintf("%s >= %s", col, arg(*c.Min)))
			}
			if c.Max != nil {
				conds = append(conds, fmt.Sprintf("%s <= %s", col, arg(*c.Max)))
			}
		case listing.KindText:
			if f.SearchMode == listing.SearchRegex {
				p := arg("%" + utils.EscapeLike(c.Text) + "%")
				conds = append(conds, "("+utils.JoinWithOr([]string{
					fmt.Sprintf(`title ILIKE %s ESCAPE '\'`, p),
					fmt.Sprintf(`make ILIKE %s ESCAPE '\'`, p),
					fmt.Sprintf(`model ILIKE %s ESCAPE '\'`, p),
				})+")")
			} else {
				conds = append(conds, fmt.Sprintf("search_vector @@ plainto_tsquery('simple', %s)", arg(c.Text)))
			}
		}
	}

	if len(conds) == 0 {
		return "TRUE", args
	}
	return utils.JoinWithAnd(conds), args
}

// orderBy chỉ dùng giá trị trong whitelist, id làm tie-breaker cho paging ổn định
func orderBy(p listing.PageRequest) string {
	col, ok := sortColumns[p.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if p.Order == listing.OrderAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, id %s", col, dir, dir)
}

// buildUpdateSet chỉ set các field khác nil; updated_at luôn được cập nhật
func buildUpdateSet(req listing.UpdateListingRequest) ([]string, []any) {
	var sets []string
	var args []any

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Title != nil {
		set("title", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Category != nil {
		set("category", *req.Category)
	}
	if req.Price != nil {
		set("price", *req.Price)
	}
	if req.Currency != nil {
		set("currency", *req.Currency)
	}
	if req.Make != nil {
		set("make", *req.Make)
	}
	if req.Model != nil {
		set("model", *req.Model)
	}
	if req.Year != nil {
		set("year", *req.Year)
	}
	if req.Mileage != nil {
		set("mileage", *req.Mileage)
	}
	if req.Location != nil {
		set("location", *req.Location)
	}
	if req.Images != nil {
		set("images", *req.Images)
	}
	if req.Active != nil {
		set("active", *req.Active)
	}

	sets = append(sets, "updated_at = NOW()")
	return sets, args
}

func scanListing(row pgx.Row) (*listing.Listing, error) {
	var l listing.Listing
	var category string
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &category, &l.Price, &l.Currency, &l.Make, &l.Model,
		&l.Year, &l.Mileage, &l.Location, &l.Images, &l.OwnerID, &l.Active,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Category = listing.Category(category)
	if l.Images == nil {
		l.Images = []string{}
	}
	return &l, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return listing.ErrListingNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
