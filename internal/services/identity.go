package services

import "eshop/internal/models"

// Identity is the authenticated principal behind a request.
type Identity struct {
	ID   string
	Role models.Role
	Name string
}

// Authorize checks that identity holds role. A nil identity is unauthenticated.
func Authorize(identity *Identity, role models.Role) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if identity.Role != role {
		return ErrForbidden
	}
	return nil
}
