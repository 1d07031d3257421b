package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = "id, account_id, order_id, kind, amount, balance_after, percentage_at_time, status, cancel_reason, created_by, occurred_at"

// LedgerRepository implements the points.LedgerRepository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) points.LedgerRepository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *LedgerRepository) WithTx(tx pgx.Tx) points.LedgerRepository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a new entry to the ledger. A partial unique index on
// pending RESERVE entries backs the one-reservation-per-account invariant
// at the database level.
func (r *LedgerRepository) Create(ctx context.Context, entry *points.Entry) error {
	query := `
		INSERT INTO points_ledger (id, account_id, order_id, kind, amount, balance_after, percentage_at_time, status, cancel_reason, created_by, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.OrderID,
		entry.Kind,
		entry.Amount,
		entry.BalanceAfter,
		entry.PercentageAtTime,
		entry.Status,
		entry.CancelReason,
		entry.CreatedBy,
		entry.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ledger entry", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// PendingReserveByAccount returns the account's active reservation, or nil
// when there is none
func (r *LedgerRepository) PendingReserveByAccount(ctx context.Context, accountID uuid.UUID) (*points.Entry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM points_ledger
		WHERE account_id = $1 AND kind = 'RESERVE' AND status = 'PENDING'
	`

	entry, err := r.scanEntry(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to get pending reservation for account", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get pending reservation for account: %w", err)
	}
	return entry, nil
}

// PendingReserveByOrder returns the active reservation tied to the order,
// or nil when there is none
func (r *LedgerRepository) PendingReserveByOrder(ctx context.Context, orderID uuid.UUID) (*points.Entry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM points_ledger
		WHERE order_id = $1 AND kind = 'RESERVE' AND status = 'PENDING'
	`

	entry, err := r.scanEntry(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to get pending reservation for order", "order_id", orderID.String(), "error", err)
		return nil, fmt.Errorf("failed to get pending reservation for order: %w", err)
	}
	return entry, nil
}

// HasAccrualForOrder reports whether points were already accrued for the order
func (r *LedgerRepository) HasAccrualForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM points_ledger WHERE order_id = $1 AND kind = 'ADD'
		)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, orderID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check accrual for order", "order_id", orderID.String(), "error", err)
		return false, fmt.Errorf("failed to check accrual for order: %w", err)
	}

	return exists, nil
}

// UpdateDisposition persists a status transition of a RESERVE entry. The
// update is guarded on the row still being PENDING, so a concurrent
// transition of the same entry surfaces as ErrStaleEntry instead of a
// double transition.
func (r *LedgerRepository) UpdateDisposition(ctx context.Context, entry *points.Entry) error {
	query := `
		UPDATE points_ledger
		SET status = $1, cancel_reason = $2
		WHERE id = $3 AND status = 'PENDING'
	`

	result, err := r.querier.Exec(ctx, query, entry.Status, entry.CancelReason, entry.ID)
	if err != nil {
		r.logger.Error("Failed to update ledger entry disposition", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to update ledger entry disposition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return points.ErrStaleEntry{EntryID: entry.ID}
	}

	return nil
}

// ListByAccount retrieves a filtered, paginated slice of the account's
// history, newest first
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, filter points.HistoryFilter) ([]*points.Entry, error) {
	where, args := historyPredicate(accountID, filter)
	query := `
		SELECT ` + ledgerColumns + `
		FROM points_ledger
		` + where + `
		ORDER BY occurred_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*points.Entry
	for rows.Next() {
		var entry points.Entry
		if err := scanEntryRow(rows, &entry); err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

// CountByAccount returns the total number of entries matching the filter
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID uuid.UUID, filter points.HistoryFilter) (int64, error) {
	where, args := historyPredicate(accountID, filter)
	query := `SELECT COUNT(*) FROM points_ledger ` + where

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

// historyPredicate builds the WHERE clause shared by ListByAccount and
// CountByAccount so both always agree on the matched set
func historyPredicate(accountID uuid.UUID, filter points.HistoryFilter) (string, []interface{}) {
	conditions := []string{"account_id = $1"}
	args := []interface{}{accountID}

	if len(filter.Kinds) > 0 {
		kinds := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, kinds)
		conditions = append(conditions, "kind = ANY($"+strconv.Itoa(len(args))+")")
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, "occurred_at >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, "occurred_at <= $"+strconv.Itoa(len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// scanEntry runs a single-row entry query, translating no-rows into nil
func (r *LedgerRepository) scanEntry(ctx context.Context, query string, arg interface{}) (*points.Entry, error) {
	var entry points.Entry
	err := scanEntryRow(r.querier.QueryRow(ctx, query, arg), &entry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntryRow(row rowScanner, entry *points.Entry) error {
	return row.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.OrderID,
		&entry.Kind,
		&entry.Amount,
		&entry.BalanceAfter,
		&entry.PercentageAtTime,
		&entry.Status,
		&entry.CancelReason,
		&entry.CreatedBy,
		&entry.OccurredAt,
	)
}
