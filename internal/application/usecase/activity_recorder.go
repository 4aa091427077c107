package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/infrastructure/eventbus"
)

// ActivityRecorder writes every activity event to the activity log.
type ActivityRecorder struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
}

// NewActivityRecorder creates a recorder.
func NewActivityRecorder(repo repository.ActivityRepository, logger *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{repo: repo, logger: logger.With(zap.String("component", "activity"))}
}

// Attach subscribes the recorder to bus and returns the unsubscribe func.
func (r *ActivityRecorder) Attach(bus eventbus.Bus) func() {
	return bus.Subscribe(eventbus.Wildcard, r.Handle)
}

// Handle records ev when it carries an activity.
func (r *ActivityRecorder) Handle(ctx context.Context, ev eventbus.Event) {
	a, ok := ev.Payload().(entity.Activity)
	if !ok {
		return
	}
	if err := r.repo.Append(ctx, &a); err != nil {
		r.logger.Error("Failed to record activity",
			zap.String("kind", string(a.Kind)),
			zap.Error(err),
		)
		return
	}
	fields := []zap.Field{
		zap.String("kind", string(a.Kind)),
		zap.String("subject", a.Subject),
		zap.Int64("target_id", a.TargetID),
		zap.String("outcome", a.Outcome),
	}
	if a.Failed() {
		r.logger.Warn("Console action failed", append(fields, zap.String("detail", a.Detail))...)
		return
	}
	r.logger.Info("Console action", fields...)
}
