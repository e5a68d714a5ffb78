package models

import "time"

// CatalogEventType is the routing key of a catalog change notification.
type CatalogEventType string

const (
	EventProductCreated CatalogEventType = "product.created"
	EventProductUpdated CatalogEventType = "product.updated"
	EventProductDeleted CatalogEventType = "product.deleted"
	EventReviewAdded    CatalogEventType = "review.added"
)

// CatalogEvent describes a committed change to the catalog.
type CatalogEvent struct {
	Type       CatalogEventType `json:"type"`
	ProductID  string           `json:"productId"`
	ActorID    string           `json:"actorId"`
	Rating     float64          `json:"rating,omitempty"`
	NumReviews int              `json:"numReviews,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}
