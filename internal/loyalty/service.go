// Package loyalty implements the points ledger core: the reservation state
// machine, the accrual rule, the eligibility gate, and the balance/history
// queries. Every multi-step mutation runs as one Postgres transaction; the
// account row lock serializes concurrent attempts against the same balance.
package loyalty

import (
	"context"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/order"
	"github.com/dinehall-loyalty-service/internal/domain/outbox"
	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/domain/user"
	"github.com/dinehall-loyalty-service/internal/platform/persistence"
)

// Service implements ReservationService, AccrualService and QueryService
// over the Postgres repositories
type Service struct {
	logger   *slog.Logger
	db       persistence.TxRunner
	accounts points.AccountRepository
	ledger   points.LedgerRepository
	orders   order.Repository
	users    user.Repository
	outbox   outbox.Repository
	gate     *EligibilityGate
	percent  PercentProvider
}

// NewService creates the loyalty core service
func NewService(
	logger *slog.Logger,
	db persistence.TxRunner,
	accounts points.AccountRepository,
	ledger points.LedgerRepository,
	orders order.Repository,
	users user.Repository,
	outboxRepo outbox.Repository,
	gate *EligibilityGate,
	percent PercentProvider,
) *Service {
	return &Service{
		logger:   logger,
		db:       db,
		accounts: accounts,
		ledger:   ledger,
		orders:   orders,
		users:    users,
		outbox:   outboxRepo,
		gate:     gate,
		percent:  percent,
	}
}

// appendOutbox records a committed ledger entry for publication. Must run on
// a repository already bound to the surrounding transaction.
func (s *Service) appendOutbox(ctx context.Context, outboxTx outbox.Repository, entry *points.Entry) error {
	message, err := outbox.NewMessage(entry)
	if err != nil {
		return err
	}
	return outboxTx.Create(ctx, message)
}
