package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/order"
	"github.com/dinehall-loyalty-service/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository implements the order.Repository interface for PostgreSQL
type OrderRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(logger *slog.Logger, db *persistence.PostgresDB) order.Repository {
	return &OrderRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *OrderRepository) WithTx(tx pgx.Tx) order.Repository {
	return &OrderRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := `
		SELECT id, slug, user_id, status, subtotal, final_amount, points_used, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o order.Order
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.Slug,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.FinalAmount,
		&o.PointsUsed,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound{ID: id}
		}
		r.logger.Error("Failed to get order", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &o, nil
}

// GetBySlug retrieves an order by its external identifier
func (r *OrderRepository) GetBySlug(ctx context.Context, slug string) (*order.Order, error) {
	query := `
		SELECT id, slug, user_id, status, subtotal, final_amount, points_used, created_at, updated_at
		FROM orders
		WHERE slug = $1
	`

	var o order.Order
	err := r.querier.QueryRow(ctx, query, slug).Scan(
		&o.ID,
		&o.Slug,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.FinalAmount,
		&o.PointsUsed,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound{Slug: slug}
		}
		r.logger.Error("Failed to get order by slug", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get order by slug: %w", err)
	}

	return &o, nil
}

// UpdatePointsApplied persists the points-related fields of the order.
// The update is guarded on the order still being PENDING; a lost race with
// the payment flow surfaces as ErrNotPending.
func (r *OrderRepository) UpdatePointsApplied(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders
		SET final_amount = $1, points_used = $2, updated_at = $3
		WHERE id = $4 AND status = 'PENDING'
	`

	result, err := r.querier.Exec(ctx, query,
		o.FinalAmount,
		o.PointsUsed,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update order points", "id", o.ID.String(), "error", err)
		return fmt.Errorf("failed to update order points: %w", err)
	}

	if result.RowsAffected() == 0 {
		return order.ErrNotPending
	}

	return nil
}
