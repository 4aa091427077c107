package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/infrastructure/persistence/models"
	domainErrors "github.com/agentops/console/pkg/errors"
)

// GormActivityRepository is the activity log on gorm.
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates the repository.
func NewGormActivityRepository(db *gorm.DB) repository.ActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append inserts activity and sets its ID.
func (r *GormActivityRepository) Append(ctx context.Context, activity *entity.Activity) error {
	if activity.At.IsZero() {
		activity.At = time.Now().UTC()
	}
	model := toActivityModel(activity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to record activity", err)
	}
	activity.ID = model.ID
	activity.At = model.At
	return nil
}

// Recent returns the newest entries first.
func (r *GormActivityRepository) Recent(ctx context.Context, limit int) ([]entity.Activity, error) {
	var rows []models.ActivityModel
	q := r.db.WithContext(ctx).Order("at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to list activity", err)
	}
	out := make([]entity.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, toActivityEntity(&rows[i]))
	}
	return out, nil
}

// Stats counts workflow runs and failed runs.
func (r *GormActivityRepository) Stats(ctx context.Context) (entity.ActivityStats, error) {
	var total, failed int64
	base := r.db.WithContext(ctx).Model(&models.ActivityModel{}).
		Where("kind = ?", string(entity.ActivityWorkflowRun))
	if err := base.Count(&total).Error; err != nil {
		return entity.ActivityStats{}, domainErrors.NewInternalErrorWithCause("failed to count runs", err)
	}
	err := r.db.WithContext(ctx).Model(&models.ActivityModel{}).
		Where("kind = ? AND outcome = ?", string(entity.ActivityWorkflowRun), entity.OutcomeFailure).
		Count(&failed).Error
	if err != nil {
		return entity.ActivityStats{}, domainErrors.NewInternalErrorWithCause("failed to count runs", err)
	}
	return entity.ActivityStats{TotalRuns: int(total), FailedRuns: int(failed)}, nil
}

func toActivityModel(a *entity.Activity) *models.ActivityModel {
	return &models.ActivityModel{
		ID:       a.ID,
		Kind:     string(a.Kind),
		Subject:  a.Subject,
		TargetID: a.TargetID,
		Outcome:  a.Outcome,
		Detail:   a.Detail,
		At:       a.At.UTC(),
	}
}

func toActivityEntity(m *models.ActivityModel) entity.Activity {
	return entity.Activity{
		ID:       m.ID,
		Kind:     entity.ActivityKind(m.Kind),
		Subject:  m.Subject,
		TargetID: m.TargetID,
		Outcome:  m.Outcome,
		Detail:   m.Detail,
		At:       m.At,
	}
}
