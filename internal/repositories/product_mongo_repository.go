package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"eshop/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "products"

// MongoProductRepository stores each product as one document with its reviews
// embedded, so a review append and the rating refresh are a single-document write.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection(productsCollection)}
}

// EnsureIndexes creates the indexes used by catalog queries.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// Find returns one page of matching products without their reviews.
func (r *MongoProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	filter := productFilter(q)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	direction := 1
	if q.SortDesc {
		direction = -1
	}
	sortKey := string(q.Sort)
	if sortKey == "" {
		sortKey = string(models.SortCreatedAt)
	}
	opts := options.Find().
		SetSort(bson.D{
			{Key: sortKey, Value: direction},
			{Key: "createdAt", Value: 1},
			{Key: "_id", Value: 1},
		}).
		SetSkip(int64(q.Offset())).
		SetProjection(bson.M{"reviews": 0})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]models.Product, 0, q.Limit)
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, total, nil
}

func productFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if q.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *q.MinRating}
	}
	if q.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	if q.Featured {
		filter["featured"] = true
	}
	if q.OnSale {
		filter["onSale"] = true
	}
	return filter
}

// GetByID returns a product with its reviews.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product document.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update sets the editable attributes of an existing product.
func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	updatedAt := product.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set := bson.M{
		"name":           product.Name,
		"description":    product.Description,
		"price":          product.Price,
		"category":       product.Category,
		"brand":          product.Brand,
		"images":         product.Images,
		"stock":          product.Stock,
		"featured":       product.Featured,
		"onSale":         product.OnSale,
		"tags":           product.Tags,
		"specifications": product.Specifications,
		"updatedAt":      updatedAt,
	}
	update := bson.M{"$set": set}
	if product.OriginalPrice != nil {
		set["originalPrice"] = *product.OriginalPrice
	} else {
		update["$unset"] = bson.M{"originalPrice": ""}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the product document, reviews included.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// AddReview appends the review and recomputes rating and numReviews with one
// pipeline update, returning the document as it is after the write.
func (r *MongoProductRepository) AddReview(ctx context.Context, productID string, review *models.Review) (*models.Product, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	review.ProductID = productID

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"numReviews": bson.M{"$size": "$reviews"},
			// floor(avg*10 + 0.5) / 10 rounds half-up like models.AverageRating.
			"rating": bson.M{"$divide": bson.A{
				bson.M{"$floor": bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{bson.M{"$avg": "$reviews.rating"}, 10}},
					0.5,
				}}},
				10,
			}},
			"updatedAt": review.CreatedAt,
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": productID}, pipeline, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	return &product, nil
}

// DeleteAll removes every product document.
func (r *MongoProductRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}
	return nil
}
