package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	apperrors "github.com/agentops/console/pkg/errors"
)

// RecentActivityLimit is how many activity entries the dashboard shows.
const RecentActivityLimit = 5

// Dashboard is the overview shown on the home view.
type Dashboard struct {
	AgentCount    int
	WorkflowCount int
	Stats         entity.ActivityStats
	Recent        []entity.Activity

	// BackendError is set when the counts could not be fetched; the local
	// stats are still filled in.
	BackendError string
}

// DashboardUseCase assembles the overview from live counts and the local
// activity log.
type DashboardUseCase struct {
	agents    repository.Lister[entity.Agent]
	workflows repository.Lister[entity.Workflow]
	activity  repository.ActivityRepository
	logger    *zap.Logger
}

// NewDashboardUseCase creates the use case.
func NewDashboardUseCase(
	agents repository.Lister[entity.Agent],
	workflows repository.Lister[entity.Workflow],
	activity repository.ActivityRepository,
	logger *zap.Logger,
) *DashboardUseCase {
	return &DashboardUseCase{
		agents:    agents,
		workflows: workflows,
		activity:  activity,
		logger:    logger.With(zap.String("usecase", "dashboard")),
	}
}

// Summary builds the dashboard. Only a failing local store is an error;
// backend failures are reported in Dashboard.BackendError.
func (uc *DashboardUseCase) Summary(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}

	stats, err := uc.activity.Stats(ctx)
	if err != nil {
		return nil, err
	}
	d.Stats = stats
	if d.Recent, err = uc.activity.Recent(ctx, RecentActivityLimit); err != nil {
		return nil, err
	}

	agents, err := uc.agents.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		uc.logger.Warn("Dashboard could not count agents", zap.Error(err))
		d.BackendError = apperrors.Detail(err, MsgFetchAgentsFailed)
		return d, nil
	}
	d.AgentCount = len(agents)

	workflows, err := uc.workflows.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		uc.logger.Warn("Dashboard could not count workflows", zap.Error(err))
		d.BackendError = apperrors.Detail(err, MsgFetchWorkflowsFailed)
		return d, nil
	}
	d.WorkflowCount = len(workflows)
	return d, nil
}
