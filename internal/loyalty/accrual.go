package loyalty

import (
	"context"
	"errors"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Accrue credits floor(orderTotal * percent / 100) points to the customer
// for a paid order. The percentage is read at call time and persisted on the
// entry. An ineligible customer, a non-positive outcome, and an order that
// already accrued all no-op without error.
func (s *Service) Accrue(ctx context.Context, userID, orderID uuid.UUID, orderTotal int64) error {
	customer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return ErrCustomerNotFound{UserID: userID}
		}
		return err
	}
	if !s.gate.IsEligible(customer) {
		s.logger.Info("Skipping accrual for ineligible user",
			"user_id", userID.String(),
			"order_id", orderID.String(),
		)
		return nil
	}

	percent := s.percent.AccrualPercent()
	pointsEarned := orderTotal * int64(percent) / 100
	if pointsEarned <= 0 {
		s.logger.Info("No points earned, skipping accrual",
			"order_id", orderID.String(),
			"order_total", orderTotal,
			"percent", percent,
		)
		return nil
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountsTx := s.accounts.WithTx(tx)
		ledgerTx := s.ledger.WithTx(tx)
		outboxTx := s.outbox.WithTx(tx)

		accrued, err := ledgerTx.HasAccrualForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if accrued {
			s.logger.Info("Order already accrued, skipping", "order_id", orderID.String())
			return nil
		}

		if err := accountsTx.CreateIfAbsent(ctx, customer.ID); err != nil {
			return err
		}
		acct, err := accountsTx.LockByUserID(ctx, customer.ID)
		if err != nil {
			return err
		}

		if err := acct.Credit(pointsEarned); err != nil {
			return err
		}
		if err := accountsTx.Update(ctx, acct); err != nil {
			return err
		}

		entry := points.NewAddEntry(acct.ID, orderID, pointsEarned, acct.Balance, percent)
		if err := ledgerTx.Create(ctx, entry); err != nil {
			return err
		}
		return s.appendOutbox(ctx, outboxTx, entry)
	})
	if err != nil {
		s.logger.Error("Accrual transaction failed",
			"user_id", userID.String(),
			"order_id", orderID.String(),
			"points_earned", pointsEarned,
			"error", err,
		)
		return ErrAccrualFailed{Err: err}
	}

	s.logger.Info("Points accrued",
		"user_id", userID.String(),
		"order_id", orderID.String(),
		"points_earned", pointsEarned,
		"percent", percent,
	)
	return nil
}
