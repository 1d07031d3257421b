package points

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientPoints = errors.New("insufficient points on account")
	ErrInvalidPoints      = errors.New("points amount must be positive")
)

// Account holds the redeemable points balance of a single user.
// The balance never goes negative; points held by a pending reservation
// are already subtracted from it.
type Account struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	Version   int       `json:"version"` // For optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates an empty account for the given user
func NewAccount(userID uuid.UUID) *Account {
	return &Account{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   0,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Credit adds points to the spendable balance (accrual or refund)
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidPoints
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit moves points out of the spendable balance (reservation hold)
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidPoints
	}

	if a.Balance < amount {
		return ErrInsufficientPoints
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// ReplaceHold releases a previously held amount and takes a new hold as one
// balance change. The version advances once, matching the single row write
// that persists the replacement.
func (a *Account) ReplaceHold(released, held int64) error {
	if held <= 0 || released < 0 {
		return ErrInvalidPoints
	}

	if a.Balance+released < held {
		return ErrInsufficientPoints
	}

	a.Balance = a.Balance + released - held
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanDebit checks whether the account has enough spendable points
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}
