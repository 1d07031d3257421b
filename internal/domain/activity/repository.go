package activity

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages activity archive persistence with pagination support
type Repository interface {
	Create(ctx context.Context, act *Activity) error
	GetByEntryID(ctx context.Context, entryID uuid.UUID) (*Activity, error)
	List(ctx context.Context, limit, offset int) ([]*Activity, error)
	Count(ctx context.Context) (int64, error)
}

// ErrActivityNotFound indicates missing archived activity
type ErrActivityNotFound struct {
	EntryID uuid.UUID
}

func (e ErrActivityNotFound) Error() string {
	return "activity not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrActivityNotFound
func (e ErrActivityNotFound) Is(target error) bool {
	t, ok := target.(ErrActivityNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
