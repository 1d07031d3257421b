package loyalty

import (
	"context"
	"errors"

	"github.com/dinehall-loyalty-service/internal/domain/order"
	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Reserve applies points to a pending order, replacing any existing
// reservation on the same order. Preconditions are checked before any
// mutation; the balance change, ledger append, entry supersession and order
// update commit as one transaction guarded by the account row lock.
func (s *Service) Reserve(ctx context.Context, orderSlug string, pointsToUse int64, actorID uuid.UUID) (*ReserveResult, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return nil, ErrActorNotFound{ActorID: actorID}
		}
		return nil, err
	}

	ord, err := s.orders.GetBySlug(ctx, orderSlug)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound{}) {
			return nil, ErrOrderNotFound{Slug: orderSlug}
		}
		return nil, err
	}
	if !ord.IsPending() {
		return nil, ErrOrderNotPending{OrderID: ord.ID}
	}

	owner, err := s.users.GetByID(ctx, ord.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound{}) {
			return nil, ErrOrderOwnerNotFound{UserID: ord.UserID}
		}
		return nil, err
	}
	if !s.gate.IsEligible(owner) {
		return nil, ErrNotEligible{UserID: owner.ID}
	}

	var result *ReserveResult
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountsTx := s.accounts.WithTx(tx)
		ledgerTx := s.ledger.WithTx(tx)
		ordersTx := s.orders.WithTx(tx)
		outboxTx := s.outbox.WithTx(tx)

		if err := accountsTx.CreateIfAbsent(ctx, owner.ID); err != nil {
			return err
		}
		acct, err := accountsTx.LockByUserID(ctx, owner.ID)
		if err != nil {
			return err
		}

		// Re-read the order under the transaction so the points fields we
		// fold back are the committed ones
		lockedOrder, err := ordersTx.GetByID(ctx, ord.ID)
		if err != nil {
			return err
		}

		pending, err := ledgerTx.PendingReserveByAccount(ctx, acct.ID)
		if err != nil {
			return err
		}

		var prior *points.Entry
		var priorAmount int64
		if pending != nil {
			if pending.OrderID == nil || *pending.OrderID != lockedOrder.ID {
				blockingOrder := uuid.Nil
				if pending.OrderID != nil {
					blockingOrder = *pending.OrderID
				}
				return ErrAlreadyReserved{AccountID: acct.ID, OrderID: blockingOrder}
			}
			prior = pending
			priorAmount = pending.Amount
		}

		if pointsToUse <= 0 {
			return ErrInvalidPointsAmount{Points: pointsToUse, Reason: "must be positive"}
		}
		if pointsToUse > acct.Balance+priorAmount {
			return ErrInvalidPointsAmount{Points: pointsToUse, Reason: "exceeds available balance"}
		}

		if err := lockedOrder.ApplyPoints(pointsToUse); err != nil {
			switch {
			case errors.Is(err, order.ErrPointsExceedPayable):
				return ErrInvalidPointsAmount{Points: pointsToUse, Reason: "exceeds order payable amount"}
			case errors.Is(err, order.ErrNotPending):
				return ErrOrderNotPending{OrderID: lockedOrder.ID}
			default:
				return err
			}
		}

		if prior != nil {
			if err := prior.Supersede(); err != nil {
				return err
			}
			if err := ledgerTx.UpdateDisposition(ctx, prior); err != nil {
				return err
			}
		}

		// One aggregate operation for the net change: a prior hold folded
		// back and the new hold taken advance the version once, so the
		// optimistic guard in the account update still matches the row
		// version read under the lock.
		if err := acct.ReplaceHold(priorAmount, pointsToUse); err != nil {
			return ErrInvalidPointsAmount{Points: pointsToUse, Reason: err.Error()}
		}
		if err := accountsTx.Update(ctx, acct); err != nil {
			return err
		}

		entry := points.NewReserveEntry(acct.ID, lockedOrder.ID, pointsToUse, acct.Balance, actor.ID)
		if err := ledgerTx.Create(ctx, entry); err != nil {
			return err
		}
		if err := s.appendOutbox(ctx, outboxTx, entry); err != nil {
			return err
		}

		if err := ordersTx.UpdatePointsApplied(ctx, lockedOrder); err != nil {
			if errors.Is(err, order.ErrNotPending) {
				return ErrOrderNotPending{OrderID: lockedOrder.ID}
			}
			return err
		}

		result = &ReserveResult{
			PointsUsed:  pointsToUse,
			FinalAmount: lockedOrder.FinalAmount,
		}
		return nil
	})
	if err != nil {
		if _, ok := AsDomainError(err); ok {
			return nil, err
		}
		s.logger.Error("Reservation transaction failed",
			"order_slug", orderSlug,
			"points", pointsToUse,
			"error", err,
		)
		return nil, ErrReservationFailed{Err: err}
	}

	s.logger.Info("Points reserved",
		"order_id", ord.ID.String(),
		"user_id", owner.ID.String(),
		"points_used", result.PointsUsed,
		"final_amount", result.FinalAmount,
	)
	return result, nil
}

// Confirm finalizes the order's pending reservation after payment. The
// reservation already depressed the balance, so confirmation only flips the
// entry's disposition and appends a USE record for audit symmetry.
func (s *Service) Confirm(ctx context.Context, orderID uuid.UUID) error {
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountsTx := s.accounts.WithTx(tx)
		ledgerTx := s.ledger.WithTx(tx)
		outboxTx := s.outbox.WithTx(tx)

		pending, err := ledgerTx.PendingReserveByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if pending == nil {
			s.logger.Info("No pending reservation to confirm", "order_id", orderID.String())
			return nil
		}

		// Lock the account so confirm serializes with a concurrent cancel
		// of the same reservation
		acct, err := accountsTx.LockByID(ctx, pending.AccountID)
		if err != nil {
			return err
		}

		if err := pending.Confirm(); err != nil {
			return err
		}
		if err := ledgerTx.UpdateDisposition(ctx, pending); err != nil {
			return err
		}

		useEntry := points.NewUseEntry(pending.AccountID, orderID, pending.Amount, acct.Balance)
		if err := ledgerTx.Create(ctx, useEntry); err != nil {
			return err
		}
		return s.appendOutbox(ctx, outboxTx, useEntry)
	})
	if err != nil {
		s.logger.Error("Confirm reservation transaction failed", "order_id", orderID.String(), "error", err)
		return ErrConfirmReservationFailed{Err: err}
	}
	return nil
}

// CancelReservation returns the order's reserved points to the spendable
// balance. A missing pending reservation, a missing account, and an
// ineligible owner are all silent no-ops so the order lifecycle can call
// this defensively.
func (s *Service) CancelReservation(ctx context.Context, orderID uuid.UUID) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountsTx := s.accounts.WithTx(tx)
		ledgerTx := s.ledger.WithTx(tx)
		outboxTx := s.outbox.WithTx(tx)

		pending, err := ledgerTx.PendingReserveByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if pending == nil {
			return nil
		}

		acct, err := accountsTx.LockByID(ctx, pending.AccountID)
		if err != nil {
			if errors.Is(err, points.ErrAccountNotFound{}) {
				s.logger.Warn("Pending reservation without account, skipping refund",
					"order_id", orderID.String(),
					"entry_id", pending.ID.String(),
				)
				return nil
			}
			return err
		}

		owner, err := s.users.GetByID(ctx, acct.UserID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound{}) {
				return nil
			}
			return err
		}
		if !s.gate.IsEligible(owner) {
			return nil
		}

		if err := pending.Cancel(); err != nil {
			return err
		}
		if err := ledgerTx.UpdateDisposition(ctx, pending); err != nil {
			return err
		}

		if err := acct.Credit(pending.Amount); err != nil {
			return err
		}
		if err := accountsTx.Update(ctx, acct); err != nil {
			return err
		}

		refund := points.NewRefundEntry(acct.ID, orderID, pending.Amount, acct.Balance)
		if err := ledgerTx.Create(ctx, refund); err != nil {
			return err
		}
		if err := s.appendOutbox(ctx, outboxTx, refund); err != nil {
			return err
		}

		s.logger.Info("Reservation cancelled and refunded",
			"order_id", orderID.String(),
			"account_id", acct.ID.String(),
			"amount", pending.Amount,
			"balance", acct.Balance,
		)
		return nil
	})
}
