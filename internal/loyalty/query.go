package loyalty

import (
	"context"
	"errors"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/domain/user"
	"github.com/google/uuid"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// GetBalance returns the customer's spendable balance, lazily creating the
// account on first read. Missing and ineligible customers fail fast so the
// caller can distinguish "zero balance" from "no account allowed".
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	customer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return 0, ErrCustomerNotFound{UserID: userID}
		}
		return 0, err
	}
	if !s.gate.IsEligible(customer) {
		return 0, ErrNotEligible{UserID: userID}
	}

	if err := s.accounts.CreateIfAbsent(ctx, customer.ID); err != nil {
		return 0, err
	}
	acct, err := s.accounts.GetByUserID(ctx, customer.ID)
	if err != nil {
		return 0, err
	}

	return acct.Balance, nil
}

// ListHistory returns a filtered page of the customer's ledger, newest
// first, plus the total count matching the filter. A customer without an
// account gets an empty page rather than an error.
func (s *Service) ListHistory(ctx context.Context, userID uuid.UUID, filter points.HistoryFilter) ([]*points.Entry, int64, error) {
	customer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return nil, 0, ErrCustomerNotFound{UserID: userID}
		}
		return nil, 0, err
	}
	if !s.gate.IsEligible(customer) {
		return nil, 0, ErrNotEligible{UserID: userID}
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryPageSize
	}
	if filter.Limit > maxHistoryPageSize {
		filter.Limit = maxHistoryPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	acct, err := s.accounts.GetByUserID(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, points.ErrAccountNotFound{}) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	entries, err := s.ledger.ListByAccount(ctx, acct.ID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ledger.CountByAccount(ctx, acct.ID, filter)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
