package points

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntryConstructors(t *testing.T) {
	accountID := uuid.New()
	orderID := uuid.New()

	t.Run("AddEntryIsConfirmedWithPercentage", func(t *testing.T) {
		entry := NewAddEntry(accountID, orderID, 500, 1500, 5)

		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, EntryKindAdd, entry.Kind)
		assert.Equal(t, EntryStatusConfirmed, entry.Status)
		assert.Equal(t, int64(500), entry.Amount)
		assert.Equal(t, int64(1500), entry.BalanceAfter)
		assert.Equal(t, 5, entry.PercentageAtTime)
		require.NotNil(t, entry.OrderID)
		assert.Equal(t, orderID, *entry.OrderID)
		assert.Nil(t, entry.CreatedBy)
		assert.False(t, entry.IsPendingReserve())
	})

	t.Run("ReserveEntryIsPendingWithActor", func(t *testing.T) {
		actorID := uuid.New()
		entry := NewReserveEntry(accountID, orderID, 200, 800, actorID)

		assert.Equal(t, EntryKindReserve, entry.Kind)
		assert.Equal(t, EntryStatusPending, entry.Status)
		require.NotNil(t, entry.CreatedBy)
		assert.Equal(t, actorID, *entry.CreatedBy)
		assert.True(t, entry.IsPendingReserve())
	})

	t.Run("UseAndRefundEntriesAreConfirmed", func(t *testing.T) {
		useEntry := NewUseEntry(accountID, orderID, 200, 800)
		refundEntry := NewRefundEntry(accountID, orderID, 200, 1000)

		assert.Equal(t, EntryKindUse, useEntry.Kind)
		assert.Equal(t, EntryStatusConfirmed, useEntry.Status)
		assert.Equal(t, EntryKindRefund, refundEntry.Kind)
		assert.Equal(t, EntryStatusConfirmed, refundEntry.Status)
	})
}

func TestEntry_Confirm(t *testing.T) {
	t.Run("ConfirmsPendingReservation", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())

		err := entry.Confirm()

		require.NoError(t, err)
		assert.Equal(t, EntryStatusConfirmed, entry.Status)
		assert.Nil(t, entry.CancelReason)
		assert.False(t, entry.IsPendingReserve())
	})

	t.Run("RejectsDoubleConfirm", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())
		require.NoError(t, entry.Confirm())

		err := entry.Confirm()

		var transitionErr ErrInvalidTransition
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, EntryStatusConfirmed, transitionErr.From)
	})

	t.Run("RejectsConfirmAfterCancel", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())
		require.NoError(t, entry.Cancel())

		err := entry.Confirm()

		var transitionErr ErrInvalidTransition
		assert.ErrorAs(t, err, &transitionErr)
	})
}

func TestEntry_Cancel(t *testing.T) {
	t.Run("CancelsWithOrderCancelledReason", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())

		err := entry.Cancel()

		require.NoError(t, err)
		assert.Equal(t, EntryStatusCancelled, entry.Status)
		require.NotNil(t, entry.CancelReason)
		assert.Equal(t, CancelReasonOrderCancelled, *entry.CancelReason)
	})

	t.Run("RejectsCancelOfConfirmedEntry", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())
		require.NoError(t, entry.Confirm())

		err := entry.Cancel()

		var transitionErr ErrInvalidTransition
		assert.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, EntryStatusConfirmed, entry.Status, "Status should be unchanged")
	})
}

func TestEntry_Supersede(t *testing.T) {
	t.Run("SupersedesWithDistinctReason", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())

		err := entry.Supersede()

		require.NoError(t, err)
		assert.Equal(t, EntryStatusCancelled, entry.Status)
		require.NotNil(t, entry.CancelReason)
		assert.Equal(t, CancelReasonSuperseded, *entry.CancelReason)
	})

	t.Run("RejectsSupersedeOfCancelledEntry", func(t *testing.T) {
		entry := NewReserveEntry(uuid.New(), uuid.New(), 200, 800, uuid.New())
		require.NoError(t, entry.Cancel())

		err := entry.Supersede()

		var transitionErr ErrInvalidTransition
		assert.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, CancelReasonOrderCancelled, *entry.CancelReason, "Original reason should survive")
	})
}
