package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehall-loyalty-service/internal/domain/user"
)

var userColumnNames = []string{"id", "slug", "name", "role", "created_at"}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: logger}
	userID := uuid.New()
	now := time.Now()

	query := `
		SELECT id, slug, name, role, created_at
		FROM users
		WHERE id = \$1
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(userColumnNames).
			AddRow(userID, "jane-doe", "Jane Doe", user.RoleMember, now)
		mock.ExpectQuery(query).WithArgs(userID).WillReturnRows(rows)

		u, err := repo.GetByID(ctx, userID)
		assert.NoError(t, err)
		assert.Equal(t, "jane-doe", u.Slug)
		assert.Equal(t, user.RoleMember, u.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).WillReturnError(pgx.ErrNoRows)

		u, err := repo.GetByID(ctx, userID)
		assert.Error(t, err)
		assert.Nil(t, u)
		var notFound user.ErrUserNotFound
		assert.ErrorAs(t, err, &notFound)
		assert.Equal(t, userID, notFound.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetBySlug(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UserRepository{querier: mock, logger: logger}
	now := time.Now()

	query := `
		SELECT id, slug, name, role, created_at
		FROM users
		WHERE slug = \$1
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(userColumnNames).
			AddRow(uuid.New(), "walk-in", "Walk-in Guest", user.RoleMember, now)
		mock.ExpectQuery(query).WithArgs("walk-in").WillReturnRows(rows)

		u, err := repo.GetBySlug(ctx, "walk-in")
		assert.NoError(t, err)
		assert.Equal(t, "walk-in", u.Slug)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

		u, err := repo.GetBySlug(ctx, "ghost")
		assert.Error(t, err)
		assert.Nil(t, u)
		var notFound user.ErrUserNotFound
		assert.ErrorAs(t, err, &notFound)
		assert.Equal(t, "ghost", notFound.Slug)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
