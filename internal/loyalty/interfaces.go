package loyalty

import (
	"context"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/google/uuid"
)

// ReserveResult reports the outcome of a successful reservation
type ReserveResult struct {
	PointsUsed  int64 `json:"points_used"`
	FinalAmount int64 `json:"final_amount"`
}

// ReservationService drives the reserve/confirm/cancel protocol over
// pending orders
type ReservationService interface {
	// Reserve applies points to a pending order on behalf of an actor.
	// A repeated call for the same order replaces the existing reservation.
	Reserve(ctx context.Context, orderSlug string, pointsToUse int64, actorID uuid.UUID) (*ReserveResult, error)

	// Confirm finalizes the order's pending reservation after payment.
	// A missing pending reservation is a successful no-op, which makes
	// Confirm safe to retry.
	Confirm(ctx context.Context, orderID uuid.UUID) error

	// CancelReservation returns the order's reserved points to the
	// spendable balance. A missing pending reservation is a no-op.
	CancelReservation(ctx context.Context, orderID uuid.UUID) error
}

// AccrualService grants points for paid orders
type AccrualService interface {
	// Accrue credits floor(orderTotal * percent / 100) points to the
	// customer. Ineligible customers, a zero outcome, and an order that
	// already accrued are silent no-ops.
	Accrue(ctx context.Context, userID, orderID uuid.UUID, orderTotal int64) error
}

// QueryService serves balance and history reads
type QueryService interface {
	// GetBalance returns the customer's spendable balance, lazily creating
	// the account on first read
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListHistory returns a filtered page of the customer's ledger,
	// newest first, plus the total count matching the filter
	ListHistory(ctx context.Context, userID uuid.UUID, filter points.HistoryFilter) ([]*points.Entry, int64, error)
}
