package service

import (
	"context"

	"github.com/dinehall-loyalty-service/internal/domain/activity"
)

// ActivityService defines the interface for the staff activity feed
type ActivityService interface {
	// ListActivities retrieves a paginated page of archived loyalty
	// activity, newest first
	// Returns activities, total count of archived activities, and any error
	ListActivities(ctx context.Context, page, perPage int) ([]*activity.Activity, int64, error)
}
