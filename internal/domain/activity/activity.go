// Package activity models the denormalized loyalty activity records kept in
// the MongoDB archive. Activities are projections of committed ledger
// entries; the Postgres ledger stays authoritative.
package activity

import (
	"time"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/google/uuid"
)

// Activity is one archived loyalty event, shaped for the staff activity feed
type Activity struct {
	EntryID      uuid.UUID  `json:"entry_id" bson:"entry_id"`
	AccountID    uuid.UUID  `json:"account_id" bson:"account_id"`
	OrderID      *uuid.UUID `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Kind         string     `json:"kind" bson:"kind"`
	Amount       int64      `json:"amount" bson:"amount"`
	BalanceAfter int64      `json:"balance_after" bson:"balance_after"`
	OccurredAt   time.Time  `json:"occurred_at" bson:"occurred_at"`
	RecordedAt   time.Time  `json:"recorded_at" bson:"recorded_at"`
}

// FromEntry projects a ledger entry into an archive record
func FromEntry(entry *points.Entry) *Activity {
	return &Activity{
		EntryID:      entry.ID,
		AccountID:    entry.AccountID,
		OrderID:      entry.OrderID,
		Kind:         string(entry.Kind),
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		OccurredAt:   entry.OccurredAt,
		RecordedAt:   time.Now().UTC(),
	}
}
