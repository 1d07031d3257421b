package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/domain/shared"
)

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		entry := points.NewAddEntry(uuid.New(), uuid.New(), 500, 1500, 5)

		beforeCreation := time.Now()
		msg, err := NewMessage(entry)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.Equal(t, entry.ID, msg.EntryID)
		assert.Equal(t, entry.AccountID, msg.AccountID)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		// Check payload
		var decodedEntry points.Entry
		err = json.Unmarshal(msg.Payload, &decodedEntry)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, decodedEntry.ID)
		assert.Equal(t, entry.Amount, decodedEntry.Amount)
	})
}

func TestMessage_IncrementAttempts(t *testing.T) {
	t.Run("SuccessfulIncrement", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Attempts:      1,
			LastAttemptAt: &initialTime,
		}

		msg.IncrementAttempts()

		assert.Equal(t, 2, msg.Attempts)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
	})
}

func TestMessage_MarkAsProcessed(t *testing.T) {
	msg := &Message{Status: shared.OutboxStatusPending}

	msg.MarkAsProcessed()

	assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
	require.NotNil(t, msg.LastAttemptAt)
}

func TestMessage_MarkAsFailed(t *testing.T) {
	msg := &Message{Status: shared.OutboxStatusPending}

	msg.MarkAsFailed()

	assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
	require.NotNil(t, msg.LastAttemptAt)
}

func TestMessage_GetEntry(t *testing.T) {
	t.Run("RoundTripsTheLedgerEntry", func(t *testing.T) {
		actorID := uuid.New()
		original := points.NewReserveEntry(uuid.New(), uuid.New(), 200, 800, actorID)
		msg, err := NewMessage(original)
		require.NoError(t, err)

		decoded, err := msg.GetEntry()

		require.NoError(t, err)
		require.NotNil(t, decoded)
		assert.Equal(t, original.ID, decoded.ID)
		assert.Equal(t, original.Kind, decoded.Kind)
		assert.Equal(t, original.Amount, decoded.Amount)
		assert.Equal(t, original.Status, decoded.Status)
		require.NotNil(t, decoded.CreatedBy)
		assert.Equal(t, actorID, *decoded.CreatedBy)
	})

	t.Run("FailsOnCorruptPayload", func(t *testing.T) {
		msg := &Message{Payload: json.RawMessage("not json")}

		decoded, err := msg.GetEntry()

		assert.Error(t, err)
		assert.Nil(t, decoded)
	})
}
