package service

import (
	"context"

	"github.com/dinehall-loyalty-service/internal/domain/shared"
)

// ProcessingService defines the interface for processing order lifecycle events
type ProcessingService interface {
	ProcessOrderEvent(ctx context.Context, event *shared.OrderEvent) error
}
