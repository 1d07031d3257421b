package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/shared"
	"github.com/dinehall-loyalty-service/internal/loyalty"
)

// OrderProcessingService routes order lifecycle events into the loyalty
// core. Payment confirms the order's reservation and accrues points;
// cancellation and expiry refund the reserved amount.
type OrderProcessingService struct {
	reservations loyalty.ReservationService
	accrual      loyalty.AccrualService
	logger       *slog.Logger
}

// NewOrderProcessingService creates a new OrderProcessingService
func NewOrderProcessingService(
	logger *slog.Logger,
	reservations loyalty.ReservationService,
	accrual loyalty.AccrualService,
) *OrderProcessingService {
	return &OrderProcessingService{
		reservations: reservations,
		accrual:      accrual,
		logger:       logger,
	}
}

// ProcessOrderEvent applies one order lifecycle event. Returning an error
// leaves the Kafka offset uncommitted so the event is redelivered; business
// rejections are logged and acknowledged because redelivery cannot fix them.
func (s *OrderProcessingService) ProcessOrderEvent(ctx context.Context, event *shared.OrderEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Processing order event",
		"event_id", event.EventID.String(),
		"type", string(event.Type),
		"order_id", event.OrderID.String(),
	)

	switch event.Type {
	case shared.OrderEventPaid:
		return s.handleOrderPaid(ctx, logger, event)
	case shared.OrderEventCancelled, shared.OrderEventExpired:
		if err := s.reservations.CancelReservation(ctx, event.OrderID); err != nil {
			logger.Error("Failed to cancel reservation",
				"event_id", event.EventID.String(),
				"order_id", event.OrderID.String(),
				"error", err,
			)
			return fmt.Errorf("cancel reservation for order %s failed: %w", event.OrderID.String(), err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", shared.ErrInvalidOrderEventType, string(event.Type))
	}
}

func (s *OrderProcessingService) handleOrderPaid(ctx context.Context, logger *slog.Logger, event *shared.OrderEvent) error {
	if event.OrderTotal < 0 {
		logger.Error("Order paid event carries a negative total, dropping",
			"event_id", event.EventID.String(),
			"order_id", event.OrderID.String(),
			"order_total", event.OrderTotal,
		)
		return nil
	}

	// Confirm before accrue: the reservation's disposition must be settled
	// before the paid order grants new points
	if err := s.reservations.Confirm(ctx, event.OrderID); err != nil {
		logger.Error("Failed to confirm reservation",
			"event_id", event.EventID.String(),
			"order_id", event.OrderID.String(),
			"error", err,
		)
		// Confirm is idempotent, redelivery is safe
		return fmt.Errorf("confirm reservation for order %s failed: %w", event.OrderID.String(), err)
	}

	if err := s.accrual.Accrue(ctx, event.UserID, event.OrderID, event.OrderTotal); err != nil {
		if isTransient(err) {
			logger.Error("Accrual failed transiently, event will be redelivered",
				"event_id", event.EventID.String(),
				"order_id", event.OrderID.String(),
				"error", err,
			)
			return fmt.Errorf("accrue for order %s failed: %w", event.OrderID.String(), err)
		}

		// Business rejections (unknown customer and the like) cannot be
		// fixed by redelivery
		logger.Warn("Accrual rejected, acknowledging event",
			"event_id", event.EventID.String(),
			"order_id", event.OrderID.String(),
			"error", err,
		)
		return nil
	}

	return nil
}

// isTransient reports whether the failure is a storage-level one worth a
// redelivery, as opposed to a business rejection
func isTransient(err error) bool {
	de, ok := loyalty.AsDomainError(err)
	if !ok {
		return true
	}
	switch de.Code() {
	case "ACCRUAL_FAILED", "RESERVATION_FAILED", "CONFIRM_RESERVATION_FAILED":
		return true
	default:
		return false
	}
}
