package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidOrderEventType = errors.New("invalid order event type")
	ErrInvalidOrderTotal     = errors.New("order total must not be negative")
)

// OrderEventType defines the order lifecycle transitions the loyalty
// service reacts to
type OrderEventType string

const (
	OrderEventPaid      OrderEventType = "ORDER_PAID"
	OrderEventCancelled OrderEventType = "ORDER_CANCELLED"
	OrderEventExpired   OrderEventType = "ORDER_EXPIRED"
)

// OrderEvent defines a Kafka message emitted by the order lifecycle.
// OrderTotal is only meaningful for ORDER_PAID and carries the amount the
// customer actually paid, in cents/minor units.
type OrderEvent struct {
	EventID       uuid.UUID      `json:"event_id"`
	Type          OrderEventType `json:"type"`
	OrderID       uuid.UUID      `json:"order_id"`
	UserID        uuid.UUID      `json:"user_id"`
	OrderTotal    int64          `json:"order_total"`
	CorrelationID string         `json:"correlation_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
