// Package order models the read-side view of POS orders. The loyalty core
// reads orders to validate reservations and mutates only the points-related
// fields (FinalAmount, PointsUsed) inside the reservation transaction.
package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrPointsExceedPayable indicates an attempt to apply more points than
	// the order's remaining payable amount
	ErrPointsExceedPayable = errors.New("points exceed order payable amount")
	// ErrNotPending indicates a points mutation on an order past the
	// pre-payment state
	ErrNotPending = errors.New("order is not pending")
)

// Status defines order lifecycle states as the POS records them
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Order is a POS order. Subtotal is the amount computed by the pricing
// engine before points; FinalAmount is what remains payable after points.
// Amounts are stored in cents/minor units.
type Order struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	UserID      uuid.UUID `json:"user_id"`
	Status      Status    `json:"status"`
	Subtotal    int64     `json:"subtotal"`
	FinalAmount int64     `json:"final_amount"`
	PointsUsed  int64     `json:"points_used"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPending reports whether the order is still awaiting payment
func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

// Payable returns the amount still payable if the current points
// application were undone
func (o *Order) Payable() int64 {
	return o.FinalAmount + o.PointsUsed
}

// ApplyPoints replaces the order's applied-points amount. Any previously
// applied points are folded back into the payable amount first.
func (o *Order) ApplyPoints(points int64) error {
	if !o.IsPending() {
		return ErrNotPending
	}

	payable := o.FinalAmount + o.PointsUsed
	if points > payable {
		return ErrPointsExceedPayable
	}

	o.FinalAmount = payable - points
	o.PointsUsed = points
	o.UpdatedAt = time.Now()
	return nil
}
