// Package mongo provides the MongoDB implementation of the activity archive.
// The archive is a denormalized read model fed by the outbox poller and is
// never authoritative for balances.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dinehall-loyalty-service/internal/domain/activity"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// ActivityCollectionName is the name of the activity collection in MongoDB
	ActivityCollectionName = "loyalty_activities"
)

// ActivityRepository implements the activity.Repository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) activity.Repository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Create archives a new activity record. Creating a record that already
// exists is a no-op, which keeps the poller idempotent under retries.
func (r *ActivityRepository) Create(ctx context.Context, act *activity.Activity) error {
	collection := r.db.Collection(ActivityCollectionName)

	existing, err := r.GetByEntryID(ctx, act.EntryID)
	if err != nil && !errors.Is(err, activity.ErrActivityNotFound{}) {
		r.logger.Error("Failed to check for existing activity",
			"entry_id", act.EntryID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing activity: %w", err)
	}

	if existing != nil {
		return nil
	}

	_, err = collection.InsertOne(ctx, act)
	if err != nil {
		r.logger.Error("Failed to create activity",
			"entry_id", act.EntryID.String(),
			"error", err)
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// GetByEntryID retrieves an archived activity by the ledger entry it mirrors.
// Returns ErrActivityNotFound if no record exists.
func (r *ActivityRepository) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*activity.Activity, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"entry_id": entryID}
	var act activity.Activity
	err := collection.FindOne(ctx, filter).Decode(&act)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, activity.ErrActivityNotFound{EntryID: entryID}
		}
		r.logger.Error("Failed to get activity",
			"entry_id", entryID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return &act, nil
}

// List retrieves paginated activities across all accounts, newest first
func (r *ActivityRepository) List(ctx context.Context, limit, offset int) ([]*activity.Activity, error) {
	collection := r.db.Collection(ActivityCollectionName)

	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list activities", "error", err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []*activity.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		r.logger.Error("Failed to decode activities", "error", err)
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}

	return activities, nil
}

// Count returns the total number of archived activities
func (r *ActivityRepository) Count(ctx context.Context) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		r.logger.Error("Failed to count activities", "error", err)
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}

	return count, nil
}
