package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eshop/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It keeps products in insertion order so ties in the sort key resolve the
// same way the database backends do.
type MockProductRepository struct {
	products map[string]models.Product
	order    []string
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// Find returns the requested page of matching products.
func (r *MockProductRepository) Find(_ context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.products[id]
		if q.Matches(&p) {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return q.Less(&matched[i], &matched[j])
	})

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	page := make([]models.Product, 0, end-start)
	for _, p := range matched[start:end] {
		p.Reviews = nil
		page = append(page, cloneProduct(p))
	}
	return page, total, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	product = cloneProduct(product)
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicate)
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}
	r.products[product.ID] = cloneProduct(*product)
	r.order = append(r.order, product.ID)
	return nil
}

// Update modifies an existing product's editable attributes.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	updated := cloneProduct(*product)
	updated.Reviews = existing.Reviews
	updated.Rating = existing.Rating
	updated.NumReviews = existing.NumReviews
	updated.CreatedAt = existing.CreatedAt
	updated.CreatedBy = existing.CreatedBy
	if updated.UpdatedAt.IsZero() {
		updated.UpdatedAt = time.Now()
	}
	r.products[product.ID] = updated
	return nil
}

// Delete removes a product and its reviews by ID.
func (r *MockProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddReview appends a review and recomputes the product's rating under the write lock.
func (r *MockProductRepository) AddReview(_ context.Context, productID string, review *models.Review) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.ProductID = productID
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	product = cloneProduct(product)
	product.AddReview(*review)
	product.UpdatedAt = review.CreatedAt
	r.products[productID] = product

	out := cloneProduct(product)
	return &out, nil
}

// DeleteAll removes every product.
func (r *MockProductRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = make(map[string]models.Product)
	r.order = nil
	return nil
}

func cloneProduct(p models.Product) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Specifications != nil {
		p.Specifications = append(models.Specifications(nil), p.Specifications...)
	}
	if p.Reviews != nil {
		p.Reviews = append([]models.Review(nil), p.Reviews...)
	}
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		p.OriginalPrice = &v
	}
	return p
}
