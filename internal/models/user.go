package models

import (
	"strings"
	"time"
)

// Role is the capability level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Address is the optional postal address of a user.
type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty" gorm:"type:varchar(200)" validate:"omitempty,max=200"`
	City    string `json:"city,omitempty" bson:"city,omitempty" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	State   string `json:"state,omitempty" bson:"state,omitempty" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	ZipCode string `json:"zipCode,omitempty" bson:"zipCode,omitempty" gorm:"type:varchar(20)" validate:"omitempty,max=20"`
	Country string `json:"country,omitempty" bson:"country,omitempty" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
}

// User represents a customer or administrator of the store.
// The password hash is never serialized to JSON.
type User struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" bson:"name" gorm:"type:varchar(50);not null"`
	Email     string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" bson:"password" gorm:"type:varchar(255);not null"`
	Role      Role      `json:"role" bson:"role" gorm:"type:varchar(10);not null;default:user"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty" gorm:"type:varchar(30)"`
	Address   Address   `json:"address" bson:"address" gorm:"embedded;embeddedPrefix:address_"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
