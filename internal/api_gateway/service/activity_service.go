package service

import (
	"context"

	"github.com/dinehall-loyalty-service/internal/domain/activity"
)

// ActivityServiceImpl implements the ActivityService interface over the
// MongoDB activity archive
type ActivityServiceImpl struct {
	activityRepo activity.Repository
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo activity.Repository) ActivityService {
	return &ActivityServiceImpl{
		activityRepo: activityRepo,
	}
}

// ListActivities retrieves one page of archived activity plus the total count
func (s *ActivityServiceImpl) ListActivities(ctx context.Context, page, perPage int) ([]*activity.Activity, int64, error) {
	offset := (page - 1) * perPage

	activities, err := s.activityRepo.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.activityRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}
