package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/activity"
	"github.com/dinehall-loyalty-service/internal/domain/outbox"
	"github.com/dinehall-loyalty-service/internal/domain/shared"
	"github.com/dinehall-loyalty-service/internal/platform/messaging/producers"
)

// ActivityPublisher publishes outbox messages as loyalty activity
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, message *outbox.Message) error
}

// ActivityPublisherImpl publishes each committed ledger entry to the loyalty
// events topic and archives it in the MongoDB activity collection. Both
// steps are idempotent, so a retried message cannot double-archive.
type ActivityPublisherImpl struct {
	outboxRepo   outbox.Repository
	activityRepo activity.Repository
	producer     producers.MessagePublisher
	logger       *slog.Logger
}

// NewActivityPublisher creates a new publisher
func NewActivityPublisher(
	outboxRepo outbox.Repository,
	activityRepo activity.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) ActivityPublisher {
	return &ActivityPublisherImpl{
		outboxRepo:   outboxRepo,
		activityRepo: activityRepo,
		producer:     producer,
		logger:       logger,
	}
}

// PublishActivity processes and publishes one outbox message
func (p *ActivityPublisherImpl) PublishActivity(ctx context.Context, message *outbox.Message) error {
	entry, err := message.GetEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal ledger entry from outbox payload",
			"outbox_id", message.ID, "entry_id", message.EntryID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	p.logger.Info("Attempting to publish outbox message",
		"outbox_id", message.ID, "entry_id", entry.ID.String(), "kind", string(entry.Kind),
	)

	// Key by account so all of one account's activity lands in one partition
	if err := p.producer.Publish(ctx, entry.AccountID.String(), entry); err != nil {
		p.logger.Error("Failed to publish loyalty event", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to publish loyalty event for entry %s: %w", entry.ID.String(), err)
	}

	act := activity.FromEntry(entry)
	if err := p.activityRepo.Create(ctx, act); err != nil {
		p.logger.Error("Failed to archive activity in MongoDB", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to archive activity for entry %s: %w", entry.ID.String(), err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "entry_id", entry.ID.String(), "error", err,
		)
		return fmt.Errorf("activity for %s published, but failed to mark outbox %d as PROCESSED: %w", entry.ID.String(), message.ID, err)
	}

	p.logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "entry_id", entry.ID.String())
	return nil
}
