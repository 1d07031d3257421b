package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines order persistence operations. Reads are unrestricted;
// the only write the loyalty core performs is UpdatePointsApplied.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetBySlug(ctx context.Context, slug string) (*Order, error)

	// UpdatePointsApplied persists the points-related fields of the order.
	// Must run inside the same transaction as the ledger append.
	UpdatePointsApplied(ctx context.Context, order *Order) error
	WithTx(tx pgx.Tx) Repository
}

// ErrOrderNotFound indicates missing order
type ErrOrderNotFound struct {
	ID   uuid.UUID
	Slug string
}

func (e ErrOrderNotFound) Error() string {
	if e.Slug != "" {
		return "order not found: " + e.Slug
	}
	return "order not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrOrderNotFound
func (e ErrOrderNotFound) Is(target error) bool {
	t, ok := target.(ErrOrderNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil && t.Slug == "" {
		return true
	}
	return e.ID == t.ID && e.Slug == t.Slug
}
