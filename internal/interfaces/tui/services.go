package tui

import (
	"context"
	"time"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
)

// AgentService is the agent behavior the TUI drives.
type AgentService interface {
	List(ctx context.Context) ([]entity.Agent, error)
	Save(ctx context.Context, id int64, in usecase.AgentInput) (entity.Agent, error)
	Delete(ctx context.Context, id int64, name string) error
}

// WorkflowService is the workflow behavior the TUI drives.
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

// Services bundles what the TUI needs from the application layer.
type Services struct {
	Agents    AgentService
	Workflows WorkflowService
	Settings  SettingsService
	Dashboard DashboardService

	// NoticeTTL is read each time a notice is shown so config reloads
	// apply without restarting.
	NoticeTTL func() time.Duration
}

func (s Services) noticeTTL() time.Duration {
	if s.NoticeTTL == nil {
		return 3 * time.Second
	}
	if ttl := s.NoticeTTL(); ttl > 0 {
		return ttl
	}
	return 3 * time.Second
}
