package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var productSortColumns = map[models.SortField]string{
	models.SortCreatedAt:  "created_at",
	models.SortName:       "name",
	models.SortPrice:      "price",
	models.SortRating:     "rating",
	models.SortNumReviews: "num_reviews",
}

// Columns never written by Update: identity, provenance and the derived rating statistics.
var productUpdateOmit = []string{"id", "created_at", "created_by", "rating", "num_reviews", clause.Associations}

// GORMProductRepository is a GORM implementation of ProductRepository.
// Reviews live in their own table keyed by product and are only reachable
// through the product.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Find retrieves one page of matching products from the database.
func (r *GORMProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	column, ok := productSortColumns[q.Sort]
	if !ok {
		column = productSortColumns[models.SortCreatedAt]
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	products := make([]models.Product, 0, q.Limit)
	tx := r.filtered(ctx, q).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("created_at ASC").
		Order("id ASC").
		Offset(q.Offset())
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (r *GORMProductRepository) filtered(ctx context.Context, q models.ProductQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		tx = tx.Where(`(name_folded LIKE ? ESCAPE '\' OR description_folded LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	if q.MinRating != nil {
		tx = tx.Where("rating >= ?", *q.MinRating)
	}
	if q.InStock {
		tx = tx.Where("stock > ?", 0)
	}
	if q.Featured {
		tx = tx.Where("featured = ?", true)
	}
	if q.OnSale {
		tx = tx.Where("on_sale = ?", true)
	}
	return tx
}

// GetByID retrieves a single product with its reviews from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	foldSearchColumns(product)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every editable column of an existing product, including zero values.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	foldSearchColumns(product)
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("*").
		Omit(productUpdateOmit...).
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete hard-deletes a product and its reviews in one transaction.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews of product %s: %w", id, err)
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil
	})
}

// AddReview inserts the review and refreshes rating and numReviews in the same
// transaction, then returns the updated product.
func (r *GORMProductRepository) AddReview(ctx context.Context, productID string, review *models.Review) (*models.Product, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	review.ProductID = productID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&exists).Error; err != nil {
			return fmt.Errorf("failed to look up product %s: %w", productID, err)
		}
		if exists == 0 {
			return fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
		}
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		var ratings []int
		if err := tx.Model(&models.Review{}).Where("product_id = ?", productID).Pluck("rating", &ratings).Error; err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		res := tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
			"rating":      models.AverageRating(ratings),
			"num_reviews": len(ratings),
			"updated_at":  review.CreatedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update product rating: %w", res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, productID)
}

// DeleteAll removes every product and review.
func (r *GORMProductRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete products: %w", err)
		}
		return nil
	})
}

// BackfillSearchColumns fills the folded search columns of rows written
// before those columns existed.
func (r *GORMProductRepository) BackfillSearchColumns(ctx context.Context) error {
	var stale []models.Product
	err := r.db.WithContext(ctx).
		Select("id", "name", "description").
		Where("name_folded = ? AND name <> ?", "", "").
		Find(&stale).Error
	if err != nil {
		return fmt.Errorf("failed to find products without search columns: %w", err)
	}
	for i := range stale {
		foldSearchColumns(&stale[i])
		err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", stale[i].ID).Updates(map[string]interface{}{
			"name_folded":        stale[i].NameFolded,
			"description_folded": stale[i].DescriptionFolded,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to backfill search columns of product %s: %w", stale[i].ID, err)
		}
	}
	return nil
}

// foldSearchColumns lower-cases in Go because SQLite's LOWER only folds ASCII.
func foldSearchColumns(p *models.Product) {
	p.NameFolded = strings.ToLower(p.Name)
	p.DescriptionFolded = strings.ToLower(p.Description)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
