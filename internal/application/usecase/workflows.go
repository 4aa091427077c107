package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/domain/service"
	"github.com/agentops/console/internal/infrastructure/eventbus"
	apperrors "github.com/agentops/console/pkg/errors"
)

// Fallback messages shown when the backend gives no detail.
const (
	MsgFetchWorkflowsFailed = "Failed to fetch workflows"
	MsgCreateWorkflowFailed = "Failed to create workflow"
	MsgDeleteWorkflowFailed = "Failed to delete workflow"
	MsgRunWorkflowFailed    = "Failed to run workflow"
)

// WorkflowInput is what the workflow editor submits. When TasksText is
// non-empty it is parsed and replaces Tasks.
type WorkflowInput struct {
	Name        string
	Description string
	Tasks       entity.TaskList
	TasksText   string
}

// WorkflowUseCase is the workflow list/editor/run behavior shared by every
// front end.
type WorkflowUseCase struct {
	workflows repository.WorkflowResource
	guard     *service.RunGuard
	events    publisher
	logger    *zap.Logger
}

// NewWorkflowUseCase creates the use case. bus may be nil; a nil guard gets
// a fresh one.
func NewWorkflowUseCase(workflows repository.WorkflowResource, guard *service.RunGuard, bus eventbus.Bus, logger *zap.Logger) *WorkflowUseCase {
	if guard == nil {
		guard = service.NewRunGuard()
	}
	return &WorkflowUseCase{
		workflows: workflows,
		guard:     guard,
		events:    publisher{bus: bus},
		logger:    logger.With(zap.String("usecase", "workflows")),
	}
}

// List fetches every workflow.
func (uc *WorkflowUseCase) List(ctx context.Context) ([]entity.Workflow, error) {
	workflows, err := uc.workflows.List(ctx)
	if err != nil {
		uc.logger.Warn("Failed to fetch workflows", zap.Error(err))
		return nil, err
	}
	return workflows, nil
}

// Create validates the input and creates the workflow. A task list that
// does not parse or validate never reaches the backend.
func (uc *WorkflowUseCase) Create(ctx context.Context, in WorkflowInput) (entity.Workflow, error) {
	tasks := in.Tasks
	if in.TasksText != "" {
		parsed, err := entity.ParseTasks(in.TasksText)
		if err != nil {
			return entity.Workflow{}, apperrors.NewInvalidInputErrorWithCause(TaskErrorMessage(err), err)
		}
		tasks = parsed
	}

	workflow, err := entity.NewWorkflow(in.Name, in.Description, tasks)
	if err != nil {
		return entity.Workflow{}, apperrors.NewInvalidInputErrorWithCause(TaskErrorMessage(err), err)
	}

	created, err := uc.workflows.Create(ctx, workflow)
	if err != nil {
		uc.logger.Warn("Failed to create workflow", zap.String("name", workflow.Name), zap.Error(err))
		uc.events.publish(ctx, entity.ActivityWorkflowCreated, workflow.Name, 0, err)
		return entity.Workflow{}, err
	}

	uc.logger.Info("Workflow created", zap.Int64("id", created.ID), zap.Int("tasks", len(created.Tasks)))
	uc.events.publish(ctx, entity.ActivityWorkflowCreated, created.Name, created.ID, nil)
	return created, nil
}

// Delete removes workflow id.
func (uc *WorkflowUseCase) Delete(ctx context.Context, id int64, name string) error {
	err := uc.workflows.Delete(ctx, id)
	uc.events.publish(ctx, entity.ActivityWorkflowDeleted, name, id, err)
	if err != nil {
		uc.logger.Warn("Failed to delete workflow", zap.Int64("id", id), zap.Error(err))
		return err
	}
	uc.logger.Info("Workflow deleted", zap.Int64("id", id))
	return nil
}

// Run executes workflow id. A second run of the same workflow while one is
// outstanding fails with a conflict error; other workflows are unaffected.
func (uc *WorkflowUseCase) Run(ctx context.Context, id int64, name string) (*entity.RunResult, error) {
	release, err := uc.guard.Acquire(id)
	if err != nil {
		return nil, apperrors.NewConflictError("Workflow is already running")
	}
	defer release()

	uc.logger.Info("Running workflow", zap.Int64("id", id))
	result, err := uc.workflows.Run(ctx, id)
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	if err == nil && !result.Succeeded() {
		err = apperrors.NewInternalError("Workflow finished with status " + result.Status)
	}
	uc.events.publish(ctx, entity.ActivityWorkflowRun, name, id, err)
	if err != nil {
		uc.logger.Warn("Workflow run failed", zap.Int64("id", id), zap.Error(err))
		return result, err
	}
	uc.logger.Info("Workflow run complete",
		zap.Int64("id", id),
		zap.Int("results", len(result.Results)),
		zap.Int("messages", len(result.Messages)),
	)
	return result, nil
}

// Running reports whether workflow id has a run outstanding.
func (uc *WorkflowUseCase) Running(id int64) bool {
	return uc.guard.Running(id)
}

// TaskErrorMessage is the operator-facing text for a task list error.
func TaskErrorMessage(err error) string {
	if errors.Is(err, entity.ErrInvalidTaskList) {
		return "Invalid JSON for tasks: " + err.Error()
	}
	return err.Error()
}
