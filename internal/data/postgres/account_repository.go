// Package postgres provides PostgreSQL implementations of the domain
// repositories. Postgres is the authoritative store for accounts, the points
// ledger, orders, users and the outbox; all balance-affecting writes run
// inside a single transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the points.AccountRepository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL points account repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) points.AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls
func (r *AccountRepository) WithTx(tx pgx.Tx) points.AccountRepository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateIfAbsent lazily creates an empty account for the user. The insert
// is a no-op when an account already exists, so concurrent first accesses
// cannot create duplicates.
func (r *AccountRepository) CreateIfAbsent(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO points_accounts (id, user_id, balance, version, created_at, updated_at)
		VALUES ($1, $2, 0, 1, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.querier.Exec(ctx, query, uuid.New(), userID)
	if err != nil {
		r.logger.Error("Failed to create points account", "user_id", userID.String(), "error", err)
		return fmt.Errorf("failed to create points account: %w", err)
	}

	return nil
}

// GetByUserID retrieves the account owned by the given user
func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*points.Account, error) {
	query := `
		SELECT id, user_id, balance, version, created_at, updated_at
		FROM points_accounts
		WHERE user_id = $1
	`

	return r.scanAccount(ctx, query, userID)
}

// LockByUserID obtains a pessimistic lock on the account row and returns its
// current state. Must be used within a transaction; this is what serializes
// concurrent reservation attempts against the same account.
func (r *AccountRepository) LockByUserID(ctx context.Context, userID uuid.UUID) (*points.Account, error) {
	query := `
		SELECT id, user_id, balance, version, created_at, updated_at
		FROM points_accounts
		WHERE user_id = $1
		FOR UPDATE
	`

	return r.scanAccount(ctx, query, userID)
}

// LockByID obtains a pessimistic lock on the account row by account id
func (r *AccountRepository) LockByID(ctx context.Context, id uuid.UUID) (*points.Account, error) {
	query := `
		SELECT id, user_id, balance, version, created_at, updated_at
		FROM points_accounts
		WHERE id = $1
		FOR UPDATE
	`

	var acc points.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.UserID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, points.ErrAccountNotFound{}
		}
		r.logger.Error("Failed to lock points account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock points account: %w", err)
	}

	return &acc, nil
}

// Update persists the account balance using optimistic locking on top of the
// row lock. Returns ErrConcurrentModification if the account was modified
// between read and update.
func (r *AccountRepository) Update(ctx context.Context, acc *points.Account) error {
	query := `
		UPDATE points_accounts
		SET balance = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Balance,
		acc.Version,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update points account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update points account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return points.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

func (r *AccountRepository) scanAccount(ctx context.Context, query string, userID uuid.UUID) (*points.Account, error) {
	var acc points.Account
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&acc.ID,
		&acc.UserID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, points.ErrAccountNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get points account", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}

	return &acc, nil
}
