package models

import (
	"math"
	"time"
)

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is a rating left on a product. Reviews are immutable once created and
// carry the author's display name as it was at posting time.
type Review struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"-" bson:"-" gorm:"type:varchar(36);not null;index"`
	UserID    string    `json:"user" bson:"user" gorm:"type:varchar(36);not null"`
	Name      string    `json:"name" bson:"name" gorm:"type:varchar(50);not null"`
	Rating    int       `json:"rating" bson:"rating" gorm:"not null"`
	Comment   string    `json:"comment" bson:"comment" gorm:"type:varchar(500);not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AverageRating returns the arithmetic mean of ratings rounded half-up to one
// decimal place, or 0 for no ratings.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Floor(mean*10+0.5) / 10
}
