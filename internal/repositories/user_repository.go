package repositories

import (
	"context"

	"eshop/internal/models"
)

// UserRepository defines the interface for user data access.
// Emails are stored normalized; lookups expect a normalized email.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Update persists profile fields (name, email, phone, address).
	Update(ctx context.Context, user *models.User) error
	DeleteAll(ctx context.Context) error
}
