package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"market-api/internal/domains/listing"
)

const listingsCollection = "listings"

// listingDocument là dạng lưu trong collection listings
type listingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description *string            `bson:"description,omitempty"`
	Category    string             `bson:"category"`
	Price       float64            `bson:"price"`
	Currency    string             `bson:"currency"`
	Make        *string            `bson:"make,omitempty"`
	Model       *string            `bson:"model,omitempty"`
	Year        *int               `bson:"year,omitempty"`
	Mileage     *int               `bson:"mileage,omitempty"`
	Location    *string            `bson:"location,omitempty"`
	Images      []string           `bson:"images"`
	Seller      primitive.ObjectID `bson:"seller"`
	Active      bool               `bson:"active"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d listingDocument) toListing() listing.Listing {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return listing.Listing{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Category:    listing.Category(d.Category),
		Price:       decimal.NewFromFloat(d.Price),
		Currency:    d.Currency,
		Make:        d.Make,
		Model:       d.Model,
		Year:        d.Year,
		Mileage:     d.Mileage,
		Location:    d.Location,
		Images:      images,
		OwnerID:     d.Seller.Hex(),
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) listing.Repository {
	return &mongoRepository{coll: db.Collection(listingsCollection)}
}

// EnsureListingIndexes tạo text index (cho $text) và index cho filter/sort thường dùng
func EnsureListingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(listingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "title", Value: "text"}, {Key: "make", Value: "text"}, {Key: "model", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().
				SetName("listings_text").
				SetWeights(bson.D{{Key: "title", Value: 10}, {Key: "make", Value: 5}, {Key: "model", Value: 5}, {Key: "description", Value: 1}}),
		},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "seller", Value: 1}}},
		{Keys: bson.D{{Key: "make", Value: 1}, {Key: "model", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create listing indexes: %w", err)
	}
	return nil
}

// ========================= CREATE =====================

func (r *mongoRepository) Create(ctx context.Context, l *listing.Listing) error {
	seller, err := primitive.ObjectIDFromHex(l.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: owner id", listing.ErrInvalidListing)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := listingDocument{
		ID:          primitive.NewObjectID(),
		Title:       l.Title,
		Description: l.Description,
		Category:    string(l.Category),
		Price:       l.Price.InexactFloat64(),
		Currency:    l.Currency,
		Make:        l.Make,
		Model:       l.Model,
		Year:        l.Year,
		Mileage:     l.Mileage,
		Location:    l.Location,
		Images:      l.Images,
		Seller:      seller,
		Active:      l.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	l.ID = doc.ID.Hex()
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

// ========================= READ =====================

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*listing.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, listing.ErrListingNotFound
	}

	var doc listingDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoNotFoundOr(err, "failed to get listing")
	}
	l := doc.toListing()
	return &l, nil
}

// ========================= UPDATE / DELETE =====================

// Update: FindOneAndUpdate với filter {_id, seller}, không khớp -> not found
func (r *mongoRepository) Update(ctx context.Context, id, ownerID string, req listing.UpdateListingRequest) (*listing.Listing, error) {
	filter, ok := ownedBy(id, ownerID)
	if !ok {
		return nil, listing.ErrListingNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc listingDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": buildSetDocument(req, time.Now().UTC())}, opts).Decode(&doc)
	if err != nil {
		return nil, mongoNotFoundOr(err, "failed to update listing")
	}
	l := doc.toListing()
	return &l, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id, ownerID string) (*listing.Listing, error) {
	filter, ok := ownedBy(id, ownerID)
	if !ok {
		return nil, listing.ErrListingNotFound
	}

	var doc listingDocument
	if err := r.coll.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return nil, mongoNotFoundOr(err, "failed to delete listing")
	}
	l := doc.toListing()
	return &l, nil
}

// ========================= LIST =====================

type facetResult struct {
	Items []listingDocument `bson:"items"`
	Total []struct {
		N int64 `bson:"n"`
	} `bson:"total"`
}

// List dùng một aggregation $facet để items và total đến từ cùng một lần đọc
func (r *mongoRepository) List(ctx context.Context, q listing.ListQuery) ([]listing.Listing, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildMongoFilter(q.Filter)}},
		{{Key: "$facet", Value: bson.D{
			{Key: "items", Value: bson.A{
				bson.D{{Key: "$sort", Value: mongoSort(q.Page)}},
				bson.D{{Key: "$skip", Value: int64(q.Page.Skip())}},
				bson.D{{Key: "$limit", Value: int64(q.Page.Limit)}},
			}},
			{Key: "total", Value: bson.A{
				bson.D{{Key: "$count", Value: "n"}},
			}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate listings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []facetResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}

	items := []listing.Listing{}
	var total int64
	if len(results) > 0 {
		for _, doc := range results[0].Items {
			items = append(items, doc.toListing())
		}
		if len(results[0].Total) > 0 {
			total = results[0].Total[0].N
		}
	}
	return items, total, nil
}

// ============================================
// HELPER METHODS
// ============================================

var mongoFields = map[listing.Attr]string{
	listing.AttrCategory: "category",
	listing.AttrMake:     "make",
	listing.AttrModel:    "model",
	listing.AttrYear:     "year",
	listing.AttrLocation: "location",
	listing.AttrPrice:    "price",
	listing.AttrActive:   "active",
}

var mongoSortFields = map[listing.SortField]string{
	listing.SortCreatedAt: "createdAt",
	listing.SortPrice:     "price",
	listing.SortYear:      "year",
	listing.SortMileage:   "mileage",
	listing.SortTitle:     "title",
}

// buildMongoFilter dịch Filter thành bson; $text đứng ở top-level, phần còn lại nằm trong $and
func buildMongoFilter(f listing.Filter) bson.M {
	filter := bson.M{}
	var and []bson.M

	for _, c := range f.Constraints {
		field := mongoFields[c.Attr]
		switch c.Kind {
		case listing.KindEqual, listing.KindBool:
			and = append(and, bson.M{field: c.Value})
		case listing.KindNotEqual:
			and = append(and, bson.M{field: bson.M{"$ne": c.Value}})
		case listing.KindRange:
			bounds := bson.M{}
			if c.Min != nil {
				bounds["$gte"] = c.Min.InexactFloat64()
			}
			if c.Max != nil {
				bounds["$lte"] = c.Max.InexactFloat64()
			}
			and = append(and, bson.M{field: bounds})
		case listing.KindText:
			if f.SearchMode == listing.SearchRegex {
				re := primitive.Regex{Pattern: regexp.QuoteMeta(c.Text), Options: "i"}
				and = append(and, bson.M{"$or": bson.A{
					bson.M{"title": re},
					bson.M{"make": re},
					bson.M{"model": re},
				}})
			} else {
				filter["$text"] = bson.M{"$search": c.Text}
			}
		}
	}

	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func mongoSort(p listing.PageRequest) bson.D {
	field, ok := mongoSortFields[p.Sort]
	if !ok {
		field = "createdAt"
	}
	dir := -1
	if p.Order == listing.OrderAsc {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func buildSetDocument(req listing.UpdateListingRequest, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if req.Title != nil {
		set["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Price != nil {
		set["price"] = req.Price.InexactFloat64()
	}
	if req.Currency != nil {
		set["currency"] = *req.Currency
	}
	if req.Make != nil {
		set["make"] = *req.Make
	}
	if req.Model != nil {
		set["model"] = *req.Model
	}
	if req.Year != nil {
		set["year"] = *req.Year
	}
	if req.Mileage != nil {
		set["mileage"] = *req.Mileage
	}
	if req.Location != nil {
		set["location"] = *req.Location
	}
	if req.Images != nil {
		set["images"] = *req.Images
	}
	if req.Active != nil {
		set["active"] = *req.Active
	}
	return set
}

func ownedBy(id, ownerID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	seller, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "seller": seller}, true
}

func mongoNotFoundOr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return listing.ErrListingNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
