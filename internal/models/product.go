package models

import "time"

// Category is one of the fixed catalog categories.
type Category string

const (
	CategoryGames       Category = "Games"
	CategoryConsoles    Category = "Consoles"
	CategoryAccessories Category = "Accessories"
	CategoryControllers Category = "Controllers"
	CategoryCases       Category = "Cases & Protection"
	CategoryStorage     Category = "Memory & Storage"
	CategoryCables      Category = "Cables & Adapters"
	CategoryStandsGrips Category = "Stands & Grips"
)

// DefaultProductBrand is applied when a product is created without a brand.
const DefaultProductBrand = "Nintendo"

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryGames,
	CategoryConsoles,
	CategoryAccessories,
	CategoryControllers,
	CategoryCases,
	CategoryStorage,
	CategoryCables,
	CategoryStandsGrips,
}

// Valid reports whether c belongs to the category enumeration.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a product in the store together with its embedded reviews.
// Rating and NumReviews are always derived from Reviews.
type Product struct {
	ID             string         `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name           string         `json:"name" bson:"name" gorm:"type:varchar(100);not null;index"`
	Description    string         `json:"description" bson:"description" gorm:"type:varchar(1000);not null"`
	Price          float64        `json:"price" bson:"price" gorm:"not null;index"`
	OriginalPrice  *float64       `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Category       Category       `json:"category" bson:"category" gorm:"type:varchar(40);not null;index"`
	Brand          string         `json:"brand" bson:"brand" gorm:"type:varchar(100);not null"`
	Images         []string       `json:"images" bson:"images" gorm:"serializer:json"`
	Stock          int            `json:"stock" bson:"stock" gorm:"not null;default:0"`
	Featured       bool           `json:"featured" bson:"featured" gorm:"not null;default:false;index"`
	OnSale         bool           `json:"onSale" bson:"onSale" gorm:"not null;default:false;index"`
	Tags           []string       `json:"tags" bson:"tags" gorm:"serializer:json"`
	Specifications Specifications `json:"specifications" bson:"specifications" gorm:"serializer:json"`
	Rating         float64        `json:"rating" bson:"rating" gorm:"not null;default:0;index"`
	NumReviews     int            `json:"numReviews" bson:"numReviews" gorm:"not null;default:0"`
	Reviews        []Review       `json:"reviews,omitempty" bson:"reviews,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedBy      string         `json:"createdBy" bson:"createdBy" gorm:"type:varchar(36);not null"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updatedAt"`

	// Lower-cased Name and Description, maintained by the relational store for search.
	NameFolded        string `json:"-" bson:"-" gorm:"type:text;not null;default:''"`
	DescriptionFolded string `json:"-" bson:"-" gorm:"type:text;not null;default:''"`
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// AddReview appends r and recomputes the derived rating statistics.
func (p *Product) AddReview(r Review) {
	p.Reviews = append(p.Reviews, r)
	p.RecalculateRating()
}

// RecalculateRating refreshes Rating and NumReviews from the embedded reviews.
func (p *Product) RecalculateRating() {
	ratings := make([]int, len(p.Reviews))
	for i, r := range p.Reviews {
		ratings[i] = r.Rating
	}
	p.Rating = AverageRating(ratings)
	p.NumReviews = len(ratings)
}
