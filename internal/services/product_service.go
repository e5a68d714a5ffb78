package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"eshop/internal/metrics"
	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Page size limits for catalog listings.
const (
	DefaultPageLimit = 12
	AdminPageLimit   = 10
	MaxPageLimit     = 100
)

// EventPublisher receives committed catalog changes.
type EventPublisher interface {
	PublishCatalogEvent(event models.CatalogEvent) error
}

// ProductInput is the payload of a new product.
type ProductInput struct {
	Name           string                `json:"name" validate:"required,min=2,max=100"`
	Description    string                `json:"description" validate:"required,min=10,max=1000"`
	Price          *float64              `json:"price" validate:"required,gte=0"`
	OriginalPrice  *float64              `json:"originalPrice" validate:"omitempty,gte=0"`
	Category       string                `json:"category" validate:"required,category"`
	Brand          string                `json:"brand" validate:"omitempty,max=100"`
	Images         []string              `json:"images" validate:"required,min=1,dive,required"`
	Stock          *int                  `json:"stock" validate:"required,gte=0"`
	Featured       bool                  `json:"featured"`
	OnSale         bool                  `json:"onSale"`
	Tags           []string              `json:"tags" validate:"omitempty,dive,max=50"`
	Specifications models.Specifications `json:"specifications"`
}

// ProductPatch is a partial product update; nil fields are left unchanged.
type ProductPatch struct {
	Name           *string                `json:"name" validate:"omitempty,min=2,max=100"`
	Description    *string                `json:"description" validate:"omitempty,min=10,max=1000"`
	Price          *float64               `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice  *float64               `json:"originalPrice" validate:"omitempty,gte=0"`
	Category       *string                `json:"category" validate:"omitempty,category"`
	Brand          *string                `json:"brand" validate:"omitempty,max=100"`
	Images         *[]string              `json:"images" validate:"omitempty,min=1,dive,required"`
	Stock          *int                   `json:"stock" validate:"omitempty,gte=0"`
	Featured       *bool                  `json:"featured"`
	OnSale         *bool                  `json:"onSale"`
	Tags           *[]string              `json:"tags" validate:"omitempty,dive,max=50"`
	Specifications *models.Specifications `json:"specifications"`
}

// ReviewInput is the payload of a new review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=5,max=500"`
}

// ProductService implements the catalog: listing, product mutations and reviews.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
	log    logrus.FieldLogger
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, log logrus.FieldLogger) *ProductService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductService{
		repo:   repo,
		events: events,
		log:    log,
	}
}

// ListProducts returns one page of the storefront catalog.
func (s *ProductService) ListProducts(ctx context.Context, params ProductListParams) (*ProductPage, error) {
	return s.list(ctx, params, DefaultPageLimit)
}

// AdminListProducts is the administrator listing; it differs only in page size.
func (s *ProductService) AdminListProducts(ctx context.Context, identity *Identity, params ProductListParams) (*ProductPage, error) {
	if err := Authorize(identity, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.list(ctx, params, AdminPageLimit)
}

func (s *ProductService) list(ctx context.Context, params ProductListParams, defaultLimit int) (*ProductPage, error) {
	q, err := BuildQuery(params, defaultLimit)
	if err != nil {
		return nil, err
	}
	products, total, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return newProductPage(products, total, q.Page, q.Limit), nil
}

// GetProduct returns a product with its reviews.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog. Admin only.
func (s *ProductService) CreateProduct(ctx context.Context, identity *Identity, in ProductInput) (*models.Product, error) {
	if err := Authorize(identity, models.RoleAdmin); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Brand = strings.TrimSpace(in.Brand)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	brand := in.Brand
	if brand == "" {
		brand = models.DefaultProductBrand
	}
	now := time.Now()
	product := &models.Product{
		Name:           in.Name,
		Description:    in.Description,
		Price:          *in.Price,
		OriginalPrice:  in.OriginalPrice,
		Category:       models.Category(in.Category),
		Brand:          brand,
		Images:         in.Images,
		Stock:          *in.Stock,
		Featured:       in.Featured,
		OnSale:         in.OnSale,
		Tags:           nonNilStrings(in.Tags),
		Specifications: in.Specifications,
		CreatedBy:      identity.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.log.WithFields(logrus.Fields{"product_id": product.ID, "user_id": identity.ID}).Info("Product created")
	metrics.RecordProductMutation("create")
	s.publish(models.CatalogEvent{Type: models.EventProductCreated, ProductID: product.ID, ActorID: identity.ID})
	return product, nil
}

// UpdateProduct applies the supplied fields to an existing product. Admin only.
func (s *ProductService) UpdateProduct(ctx context.Context, identity *Identity, id string, patch ProductPatch) (*models.Product, error) {
	if err := Authorize(identity, models.RoleAdmin); err != nil {
		return nil, err
	}
	trimPtr(patch.Name)
	trimPtr(patch.Description)
	trimPtr(patch.Brand)
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(product)
	product.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.log.WithFields(logrus.Fields{"product_id": id, "user_id": identity.ID}).Info("Product updated")
	metrics.RecordProductMutation("update")
	s.publish(models.CatalogEvent{Type: models.EventProductUpdated, ProductID: id, ActorID: identity.ID})
	return s.GetProduct(ctx, id)
}

func (p ProductPatch) apply(product *models.Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		product.OriginalPrice = p.OriginalPrice
	}
	if p.Category != nil {
		product.Category = models.Category(*p.Category)
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
		if product.Brand == "" {
			product.Brand = models.DefaultProductBrand
		}
	}
	if p.Images != nil {
		product.Images = *p.Images
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Featured != nil {
		product.Featured = *p.Featured
	}
	if p.OnSale != nil {
		product.OnSale = *p.OnSale
	}
	if p.Tags != nil {
		product.Tags = nonNilStrings(*p.Tags)
	}
	if p.Specifications != nil {
		product.Specifications = *p.Specifications
	}
}

// DeleteProduct removes a product and its reviews. Admin only.
func (s *ProductService) DeleteProduct(ctx context.Context, identity *Identity, id string) error {
	if err := Authorize(identity, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.log.WithFields(logrus.Fields{"product_id": id, "user_id": identity.ID}).Info("Product deleted")
	metrics.RecordProductMutation("delete")
	s.publish(models.CatalogEvent{Type: models.EventProductDeleted, ProductID: id, ActorID: identity.ID})
	return nil
}

// AddReview posts a review as the calling user and returns the product with
// refreshed rating statistics. Any authenticated role may review, and the same
// user may review a product more than once.
func (s *ProductService) AddReview(ctx context.Context, identity *Identity, productID string, in ReviewInput) (*models.Product, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:    identity.ID,
		Name:      identity.Name,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now(),
	}
	product, err := s.repo.AddReview(ctx, productID, review)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"product_id":  productID,
		"user_id":     identity.ID,
		"rating":      product.Rating,
		"num_reviews": product.NumReviews,
	}).Info("Review added")
	metrics.RecordReview()
	s.publish(models.CatalogEvent{
		Type:       models.EventReviewAdded,
		ProductID:  productID,
		ActorID:    identity.ID,
		Rating:     product.Rating,
		NumReviews: product.NumReviews,
	})
	return product, nil
}

// publish hands the event to the broker. Delivery failures are logged and
// never undo the committed change.
func (s *ProductService) publish(event models.CatalogEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.events.PublishCatalogEvent(event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":      event.Type,
			"product_id": event.ProductID,
		}).Warn("Failed to publish catalog event")
	}
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Items []models.Product
	Total int64
	Count int
	Page  int
	Limit int
	// Prev and Next are page numbers, nil when no such page exists.
	Prev *int
	Next *int
}

func newProductPage(items []models.Product, total int64, page, limit int) *ProductPage {
	if items == nil {
		items = []models.Product{}
	}
	p := &ProductPage{
		Items: items,
		Total: total,
		Count: len(items),
		Page:  page,
		Limit: limit,
	}
	lastPage := int(math.Ceil(float64(total) / float64(limit)))
	if page > 1 && lastPage >= 1 {
		prev := page - 1
		if prev > lastPage {
			prev = lastPage
		}
		p.Prev = &prev
	}
	if page < lastPage {
		next := page + 1
		p.Next = &next
	}
	return p
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
