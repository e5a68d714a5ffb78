package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated means the caller did not prove an identity.
	ErrUnauthenticated = errors.New("not authorized to access this route")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
	// password alike.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	// ErrInvalidToken covers missing, malformed, expired and forged tokens and
	// tokens whose user no longer exists.
	ErrInvalidToken = fmt.Errorf("invalid or expired token: %w", ErrUnauthenticated)
	// ErrForbidden means the identity is known but lacks the required role.
	ErrForbidden = errors.New("not authorized to perform this action")
	// ErrNotFound is returned when the addressed product or user does not exist.
	ErrNotFound = errors.New("resource not found")
)

// ValidationError lists every rejected input field with a readable message.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a problem with field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Empty reports whether no field was rejected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when nothing was rejected.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}
