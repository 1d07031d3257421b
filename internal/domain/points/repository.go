package points

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines points account persistence operations
type AccountRepository interface {
	// CreateIfAbsent lazily creates an empty account for the user.
	// Calling it for a user who already has an account is a no-op.
	CreateIfAbsent(ctx context.Context, userID uuid.UUID) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	Update(ctx context.Context, account *Account) error

	// LockByUserID acquires a pessimistic lock on the account row.
	// Must be used within a transaction; it serializes concurrent
	// reservation attempts against the same account.
	LockByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	LockByID(ctx context.Context, id uuid.UUID) (*Account, error)
	WithTx(tx pgx.Tx) AccountRepository
}

// HistoryFilter narrows and pages a ledger history listing
type HistoryFilter struct {
	Kinds  []EntryKind
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// LedgerRepository manages ledger entry persistence.
// Entries are append-only; only the disposition of a RESERVE entry changes
// after the fact, and only through UpdateDisposition.
type LedgerRepository interface {
	Create(ctx context.Context, entry *Entry) error

	// PendingReserveByAccount returns the account's single active
	// reservation, or nil when there is none.
	PendingReserveByAccount(ctx context.Context, accountID uuid.UUID) (*Entry, error)
	PendingReserveByOrder(ctx context.Context, orderID uuid.UUID) (*Entry, error)

	// HasAccrualForOrder reports whether an ADD entry already exists for
	// the order, making accrual idempotent per order.
	HasAccrualForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// UpdateDisposition persists a status transition. The update is guarded
	// on the row still being PENDING so an entry never transitions twice.
	UpdateDisposition(ctx context.Context, entry *Entry) error

	ListByAccount(ctx context.Context, accountID uuid.UUID, filter HistoryFilter) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID, filter HistoryFilter) (int64, error)
	WithTx(tx pgx.Tx) LedgerRepository
}

// ErrAccountNotFound indicates missing points account
type ErrAccountNotFound struct {
	UserID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "points account not found for user: " + e.UserID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.UserID == uuid.Nil {
		return true
	}
	return e.UserID == t.UserID
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for points account: " + e.AccountID.String()
}

// ErrStaleEntry indicates a disposition update raced with another transition
// of the same entry
type ErrStaleEntry struct {
	EntryID uuid.UUID
}

func (e ErrStaleEntry) Error() string {
	return "ledger entry already transitioned: " + e.EntryID.String()
}
