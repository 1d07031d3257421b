package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read-only user lookups
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetBySlug(ctx context.Context, slug string) (*User, error)
}

// ErrUserNotFound indicates missing user
type ErrUserNotFound struct {
	ID   uuid.UUID
	Slug string
}

func (e ErrUserNotFound) Error() string {
	if e.Slug != "" {
		return "user not found: " + e.Slug
	}
	return "user not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrUserNotFound
func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil && t.Slug == "" {
		return true
	}
	return e.ID == t.ID && e.Slug == t.Slug
}
