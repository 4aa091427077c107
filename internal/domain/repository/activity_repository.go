package repository

import (
	"context"

	"github.com/agentops/console/internal/domain/entity"
)

// ActivityRepository is the local activity log.
type ActivityRepository interface {
	// Append stores a new entry and assigns its ID.
	Append(ctx context.Context, activity *entity.Activity) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]entity.Activity, error)

	// Stats aggregates workflow run outcomes.
	Stats(ctx context.Context) (entity.ActivityStats, error)
}
