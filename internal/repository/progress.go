package repository

import (
	"context"

	"case-server/internal/domain"
)

// ProgressRepository exposes persistence for level completion records.
type ProgressRepository interface {
	Init(ctx context.Context) error
	// Create inserts the record, returning ErrDuplicate when the
	// (user, scenario, level) triple already exists.
	Create(ctx context.Context, progress *domain.Progress) (int64, error)
	Exists(ctx context.Context, userID int64, scenarioID, levelID string) (bool, error)
	// ListByUser returns the user's records ordered by completion time
	// ascending.
	ListByUser(ctx context.Context, userID int64) ([]domain.Progress, error)
}
