package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
)

// AgentService is the agent behavior the web console drives.
type AgentService interface {
	List(ctx context.Context) ([]entity.Agent, error)
	Save(ctx context.Context, id int64, in usecase.AgentInput) (entity.Agent, error)
	Delete(ctx context.Context, id int64, name string) error
}

// WorkflowService is the workflow behavior the web console drives.
type WorkflowService interface {
	List(ctx context.Context) ([]entity.Workflow, error)
	Create(ctx context.Context, in usecase.WorkflowInput) (entity.Workflow, error)
	Delete(ctx context.Context, id int64, name string) error
	Run(ctx context.Context, id int64, name string) (*entity.RunResult, error)
}

// SettingsService loads and saves preferences.
type SettingsService interface {
	Load(ctx context.Context) (entity.Preferences, error)
	Save(ctx context.Context, prefs entity.Preferences) (entity.Preferences, error)
}

// DashboardService builds the overview.
type DashboardService interface {
	Summary(ctx context.Context) (*usecase.Dashboard, error)
}

// HealthChecker probes the backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
