// Package user models the read-side view of the POS user directory that the
// loyalty core consults: order owners, acting staff, and the walk-in
// pseudo-user. The loyalty service never mutates users.
package user

import (
	"time"

	"github.com/google/uuid"
)

// Role defines user roles as the POS records them
type Role string

const (
	RoleStaff  Role = "STAFF"
	RoleMember Role = "MEMBER"
)

// User is a POS user. The walk-in guest pseudo-user is identified by its
// slug matching the configured walk-in marker.
type User struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
