package models

import (
	"math"
	"strings"
)

// SortField names a product attribute the catalog can be ordered by.
type SortField string

const (
	SortCreatedAt  SortField = "createdAt"
	SortName       SortField = "name"
	SortPrice      SortField = "price"
	SortRating     SortField = "rating"
	SortNumReviews SortField = "numReviews"
)

// SortFields lists the recognized sort keys.
var SortFields = []SortField{SortCreatedAt, SortName, SortPrice, SortRating, SortNumReviews}

// Valid reports whether f is a recognized sort key.
func (f SortField) Valid() bool {
	for _, known := range SortFields {
		if f == known {
			return true
		}
	}
	return false
}

// ProductQuery is a fully validated catalog query. Every filter is optional and
// all present filters are combined with AND.
type ProductQuery struct {
	Search    string
	Category  Category
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	InStock   bool
	Featured  bool
	OnSale    bool
	Sort      SortField
	SortDesc  bool
	Page      int
	Limit     int
}

// Offset is the number of matching products skipped before the page starts.
// It saturates at math.MaxInt instead of wrapping for very large pages.
func (q ProductQuery) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Matches reports whether p satisfies every filter predicate of q.
func (q ProductQuery) Matches(p *Product) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.MinRating != nil && p.Rating < *q.MinRating {
		return false
	}
	if q.InStock && !p.InStock() {
		return false
	}
	if q.Featured && !p.Featured {
		return false
	}
	if q.OnSale && !p.OnSale {
		return false
	}
	return true
}

// Less orders a before b on the query's sort key. It returns false for ties so
// callers using a stable sort keep insertion order.
func (q ProductQuery) Less(a, b *Product) bool {
	c := compareBy(q.Sort, a, b)
	if q.SortDesc {
		return c > 0
	}
	return c < 0
}

func compareBy(field SortField, a, b *Product) int {
	switch field {
	case SortName:
		return strings.Compare(a.Name, b.Name)
	case SortPrice:
		return compareFloat(a.Price, b.Price)
	case SortRating:
		return compareFloat(a.Rating, b.Rating)
	case SortNumReviews:
		return a.NumReviews - b.NumReviews
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
