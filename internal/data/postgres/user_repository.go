package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/user"
	"github.com/dinehall-loyalty-service/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements the user.Repository interface for PostgreSQL.
// The loyalty service only ever reads users.
type UserRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(logger *slog.Logger, db *persistence.PostgresDB) user.Repository {
	return &UserRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, slug, name, role, created_at
		FROM users
		WHERE id = $1
	`

	var u user.User
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Slug,
		&u.Name,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound{ID: id}
		}
		r.logger.Error("Failed to get user", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// GetBySlug retrieves a user by its external identifier
func (r *UserRepository) GetBySlug(ctx context.Context, slug string) (*user.User, error) {
	query := `
		SELECT id, slug, name, role, created_at
		FROM users
		WHERE slug = $1
	`

	var u user.User
	err := r.querier.QueryRow(ctx, query, slug).Scan(
		&u.ID,
		&u.Slug,
		&u.Name,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound{Slug: slug}
		}
		r.logger.Error("Failed to get user by slug", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get user by slug: %w", err)
	}

	return &u, nil
}
