package services

import (
	"math"
	"strconv"
	"strings"

	"eshop/internal/models"
)

// ProductListParams are the raw catalog query parameters. An empty value
// means the parameter was not supplied.
type ProductListParams struct {
	Search    string `query:"search"`
	Category  string `query:"category"`
	MinPrice  string `query:"minPrice"`
	MaxPrice  string `query:"maxPrice"`
	MinRating string `query:"minRating"`
	InStock   string `query:"inStock"`
	Featured  string `query:"featured"`
	OnSale    string `query:"onSale"`
	Sort      string `query:"sort"`
	Page      string `query:"page"`
	Limit     string `query:"limit"`
}

// BuildQuery validates params and converts them into a ProductQuery. Every
// rejected parameter is reported in the returned ValidationError.
func BuildQuery(params ProductListParams, defaultLimit int) (models.ProductQuery, error) {
	verr := &ValidationError{}
	q := models.ProductQuery{
		Search:   strings.TrimSpace(params.Search),
		Sort:     models.SortCreatedAt,
		SortDesc: true,
		Page:     1,
		Limit:    defaultLimit,
	}

	if c := strings.TrimSpace(params.Category); c != "" {
		q.Category = models.Category(c)
		if !q.Category.Valid() {
			verr.Add("category", "Please select a valid category")
		}
	}

	q.MinPrice = parseFloatParam(verr, "minPrice", params.MinPrice)
	q.MaxPrice = parseFloatParam(verr, "maxPrice", params.MaxPrice)
	q.MinRating = parseFloatParam(verr, "minRating", params.MinRating)
	q.InStock = parseBoolParam(verr, "inStock", params.InStock)
	q.Featured = parseBoolParam(verr, "featured", params.Featured)
	q.OnSale = parseBoolParam(verr, "onSale", params.OnSale)

	if s := strings.TrimSpace(params.Sort); s != "" {
		field := strings.TrimPrefix(s, "-")
		q.Sort = models.SortField(field)
		q.SortDesc = strings.HasPrefix(s, "-")
		if !q.Sort.Valid() {
			verr.Add("sort", "Sort must be one of createdAt, name, price, rating, numReviews")
		}
	}

	if page, ok := parsePositiveInt(verr, "page", params.Page); ok {
		q.Page = page
	}
	if limit, ok := parsePositiveInt(verr, "limit", params.Limit); ok {
		if limit > MaxPageLimit {
			verr.Add("limit", "Limit must be at most "+strconv.Itoa(MaxPageLimit))
		} else {
			q.Limit = limit
		}
	}

	if err := verr.Err(); err != nil {
		return models.ProductQuery{}, err
	}
	return q, nil
}

func parseFloatParam(verr *ValidationError, name, raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		verr.Add(name, displayName(name)+" must be a number")
		return nil
	}
	return &v
}

func parseBoolParam(verr *ValidationError, name, raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		verr.Add(name, displayName(name)+" must be true or false")
		return false
	}
	return v
}

func parsePositiveInt(verr *ValidationError, name, raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		verr.Add(name, displayName(name)+" must be a positive integer")
		return 0, false
	}
	return v, true
}
