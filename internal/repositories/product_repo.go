package repositories

import (
	"context"

	"eshop/internal/models"
)

// ProductRepository defines the interface for product data access.
// A product and its reviews form one consistency unit: AddReview appends the
// review and refreshes the derived rating statistics atomically.
type ProductRepository interface {
	// Find returns one page of products matching q, ordered by q's sort key with
	// creation order as tie-break, and the total number of matches.
	Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update overwrites the editable attributes of an existing product. The
	// derived rating statistics and the reviews are left untouched.
	Update(ctx context.Context, product *models.Product) error
	// Delete hard-deletes the product together with its reviews.
	Delete(ctx context.Context, id string) error
	AddReview(ctx context.Context, productID string, review *models.Review) (*models.Product, error)
	DeleteAll(ctx context.Context) error
}
