package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/shared"
	"github.com/dinehall-loyalty-service/internal/order_event_processor/service"
	"github.com/dinehall-loyalty-service/internal/platform/messaging/producers"
)

// OrderEventHandler handles incoming order lifecycle messages from Kafka
type OrderEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewOrderEventHandler creates a new handler
func NewOrderEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *OrderEventHandler {
	return &OrderEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. Poison messages (unparseable or
// with an unknown event type) go to the DLQ and are acknowledged; transient
// processing failures are returned so the offset stays uncommitted.
func (h *OrderEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal order event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)
		return h.sendToDLQ(ctx, key, value, fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error()), err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received order event for processing",
		"event_id", event.EventID.String(),
		"type", string(event.Type),
		"order_id", event.OrderID.String(),
		"user_id", event.UserID.String(),
	)

	if err := h.processingService.ProcessOrderEvent(ctx, &event); err != nil {
		if errors.Is(err, shared.ErrInvalidOrderEventType) {
			logger.Error("Order event has an unknown type, routing to DLQ",
				"event_id", event.EventID.String(),
				"type", string(event.Type),
			)
			return h.sendToDLQ(ctx, key, value, err.Error(), err)
		}

		logger.Error("Failed to process order event",
			"event_id", event.EventID.String(),
			"order_id", event.OrderID.String(),
			"error", err,
		)
		return fmt.Errorf("processing order event %s failed: %w", event.EventID.String(), err)
	}

	logger.Info("Successfully processed order event", "event_id", event.EventID.String())
	return nil
}

// sendToDLQ publishes a poison message to the DLQ and acknowledges it on
// success; if the DLQ is unavailable the original error is returned so
// Kafka redelivers.
func (h *OrderEventHandler) sendToDLQ(ctx context.Context, key, value []byte, reason string, original error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable message and no DLQ configured: %w", original)
	}

	if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", dlqErr,
			"original_error", original,
			"message_key", string(key),
		)
		return fmt.Errorf("unprocessable message and DLQ publish failed: %w", original)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
