package points

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryKind defines the kinds of ledger entries
type EntryKind string

const (
	EntryKindAdd     EntryKind = "ADD"     // Points accrued from a paid order
	EntryKindUse     EntryKind = "USE"     // Audit record written when a reservation is confirmed
	EntryKindReserve EntryKind = "RESERVE" // Points held against a pending order
	EntryKindRefund  EntryKind = "REFUND"  // Reserved points returned after order cancellation
)

// EntryStatus defines the disposition of a ledger entry.
// Only RESERVE entries are ever PENDING; every other kind is written CONFIRMED.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusConfirmed EntryStatus = "CONFIRMED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// CancelReason records why a pending reservation was cancelled
type CancelReason string

const (
	CancelReasonSuperseded     CancelReason = "SUPERSEDED"      // Replaced by a re-reservation on the same order
	CancelReasonOrderCancelled CancelReason = "ORDER_CANCELLED" // The order was cancelled or expired
)

// ErrInvalidTransition indicates an attempt to move an entry out of a
// disposition it is not in
type ErrInvalidTransition struct {
	EntryID uuid.UUID
	From    EntryStatus
	To      EntryStatus
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid ledger entry transition %s -> %s for entry %s", e.From, e.To, e.EntryID)
}

// Entry is one record in the points ledger. Everything but the disposition
// (Status and CancelReason) is immutable once written; in particular
// BalanceAfter is the account balance at commit time and is the source of
// truth for historical balance reconstruction.
type Entry struct {
	ID               uuid.UUID     `json:"id"`
	AccountID        uuid.UUID     `json:"account_id"`
	OrderID          *uuid.UUID    `json:"order_id,omitempty"`
	Kind             EntryKind     `json:"kind"`
	Amount           int64         `json:"amount"`
	BalanceAfter     int64         `json:"balance_after"`
	PercentageAtTime int           `json:"percentage_at_time"`
	Status           EntryStatus   `json:"status"`
	CancelReason     *CancelReason `json:"cancel_reason,omitempty"`
	CreatedBy        *uuid.UUID    `json:"created_by,omitempty"`
	OccurredAt       time.Time     `json:"occurred_at"`
}

// NewAddEntry records points accrued from a paid order
func NewAddEntry(accountID, orderID uuid.UUID, amount, balanceAfter int64, percent int) *Entry {
	return &Entry{
		ID:               uuid.New(),
		AccountID:        accountID,
		OrderID:          &orderID,
		Kind:             EntryKindAdd,
		Amount:           amount,
		BalanceAfter:     balanceAfter,
		PercentageAtTime: percent,
		Status:           EntryStatusConfirmed,
		OccurredAt:       time.Now(),
	}
}

// NewReserveEntry records points held against a pending order
func NewReserveEntry(accountID, orderID uuid.UUID, amount, balanceAfter int64, createdBy uuid.UUID) *Entry {
	return &Entry{
		ID:           uuid.New(),
		AccountID:    accountID,
		OrderID:      &orderID,
		Kind:         EntryKindReserve,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Status:       EntryStatusPending,
		CreatedBy:    &createdBy,
		OccurredAt:   time.Now(),
	}
}

// NewUseEntry records the final spend of previously reserved points.
// The RESERVE entry already depressed the balance, so BalanceAfter mirrors
// the balance unchanged.
func NewUseEntry(accountID, orderID uuid.UUID, amount, balanceAfter int64) *Entry {
	return &Entry{
		ID:           uuid.New(),
		AccountID:    accountID,
		OrderID:      &orderID,
		Kind:         EntryKindUse,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Status:       EntryStatusConfirmed,
		OccurredAt:   time.Now(),
	}
}

// NewRefundEntry records reserved points returned to the balance
func NewRefundEntry(accountID, orderID uuid.UUID, amount, balanceAfter int64) *Entry {
	return &Entry{
		ID:           uuid.New(),
		AccountID:    accountID,
		OrderID:      &orderID,
		Kind:         EntryKindRefund,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Status:       EntryStatusConfirmed,
		OccurredAt:   time.Now(),
	}
}

// Confirm finalizes a pending reservation on payment success
func (e *Entry) Confirm() error {
	if e.Status != EntryStatusPending {
		return ErrInvalidTransition{EntryID: e.ID, From: e.Status, To: EntryStatusConfirmed}
	}
	e.Status = EntryStatusConfirmed
	return nil
}

// Cancel voids a pending reservation because the order was cancelled or expired
func (e *Entry) Cancel() error {
	if e.Status != EntryStatusPending {
		return ErrInvalidTransition{EntryID: e.ID, From: e.Status, To: EntryStatusCancelled}
	}
	e.Status = EntryStatusCancelled
	reason := CancelReasonOrderCancelled
	e.CancelReason = &reason
	return nil
}

// Supersede voids a pending reservation that is being replaced by a new
// reservation on the same order. Kept distinct from Cancel so the audit
// trail can tell the two apart.
func (e *Entry) Supersede() error {
	if e.Status != EntryStatusPending {
		return ErrInvalidTransition{EntryID: e.ID, From: e.Status, To: EntryStatusCancelled}
	}
	e.Status = EntryStatusCancelled
	reason := CancelReasonSuperseded
	e.CancelReason = &reason
	return nil
}

// IsPendingReserve reports whether the entry is an active reservation
func (e *Entry) IsPendingReserve() bool {
	return e.Kind == EntryKindReserve && e.Status == EntryStatusPending
}
