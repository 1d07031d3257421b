package loyalty

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DomainError is an error with a stable machine-readable code. Handlers map
// codes to transport status; the codes themselves never change.
type DomainError interface {
	error
	Code() string
}

// AsDomainError unwraps err to the first DomainError in its chain
func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ErrCustomerNotFound indicates the customer does not exist
type ErrCustomerNotFound struct {
	UserID uuid.UUID
}

func (e ErrCustomerNotFound) Error() string {
	return "customer not found: " + e.UserID.String()
}

func (e ErrCustomerNotFound) Code() string { return "CUSTOMER_NOT_FOUND" }

// ErrActorNotFound indicates the acting user on a reservation does not exist
type ErrActorNotFound struct {
	ActorID uuid.UUID
}

func (e ErrActorNotFound) Error() string {
	return "actor not found: " + e.ActorID.String()
}

func (e ErrActorNotFound) Code() string { return "ACTOR_NOT_FOUND" }

// ErrOrderNotFound indicates the order does not exist
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

func (e ErrOrderNotFound) Code() string { return "ORDER_NOT_FOUND" }

// ErrOrderOwnerNotFound indicates the order references a customer that does
// not exist
type ErrOrderOwnerNotFound struct {
	UserID uuid.UUID
}

func (e ErrOrderOwnerNotFound) Error() string {
	return "order owner not found: " + e.UserID.String()
}

func (e ErrOrderOwnerNotFound) Code() string { return "ORDER_OWNER_NOT_FOUND" }

// ErrNotEligible indicates a loyalty operation attempted for the walk-in
// pseudo-customer
type ErrNotEligible struct {
	UserID uuid.UUID
}

func (e ErrNotEligible) Error() string {
	return "user is not eligible for the loyalty program: " + e.UserID.String()
}

func (e ErrNotEligible) Code() string { return "NOT_ELIGIBLE" }

// ErrOrderNotPending indicates a reservation attempt against an order that
// already left the pre-payment state
type ErrOrderNotPending struct {
	OrderID uuid.UUID
}

func (e ErrOrderNotPending) Error() string {
	return "order is not pending: " + e.OrderID.String()
}

func (e ErrOrderNotPending) Code() string { return "ORDER_NOT_PENDING" }

// ErrInvalidPointsAmount indicates a requested amount that is not positive,
// exceeds the spendable balance, or exceeds the order's payable total
type ErrInvalidPointsAmount struct {
	Points int64
	Reason string
}

func (e ErrInvalidPointsAmount) Error() string {
	return fmt.Sprintf("invalid points amount %d: %s", e.Points, e.Reason)
}

func (e ErrInvalidPointsAmount) Code() string { return "INVALID_POINTS_AMOUNT" }

// ErrAlreadyReserved indicates the account already holds a pending
// reservation for a different order
type ErrAlreadyReserved struct {
	AccountID uuid.UUID
	OrderID   uuid.UUID
}

func (e ErrAlreadyReserved) Error() string {
	return fmt.Sprintf("account %s already has a pending reservation for order %s", e.AccountID, e.OrderID)
}

func (e ErrAlreadyReserved) Code() string { return "ALREADY_RESERVED" }

// ErrAccrualFailed indicates the atomic accrual step failed; the caller may
// retry since nothing was persisted
type ErrAccrualFailed struct {
	Err error
}

func (e ErrAccrualFailed) Error() string {
	return "accrual failed: " + e.Err.Error()
}

func (e ErrAccrualFailed) Code() string { return "ACCRUAL_FAILED" }

func (e ErrAccrualFailed) Unwrap() error { return e.Err }

// ErrReservationFailed indicates the atomic reservation step failed and was
// rolled back
type ErrReservationFailed struct {
	Err error
}

func (e ErrReservationFailed) Error() string {
	return "reservation failed: " + e.Err.Error()
}

func (e ErrReservationFailed) Code() string { return "RESERVATION_FAILED" }

func (e ErrReservationFailed) Unwrap() error { return e.Err }

// ErrConfirmReservationFailed indicates the atomic confirmation step failed;
// safe to retry because confirm treats a missing pending entry as a no-op
type ErrConfirmReservationFailed struct {
	Err error
}

func (e ErrConfirmReservationFailed) Error() string {
	return "confirm reservation failed: " + e.Err.Error()
}

func (e ErrConfirmReservationFailed) Code() string { return "CONFIRM_RESERVATION_FAILED" }

func (e ErrConfirmReservationFailed) Unwrap() error { return e.Err }
