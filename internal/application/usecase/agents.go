package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/infrastructure/eventbus"
	apperrors "github.com/agentops/console/pkg/errors"
)

// Fallback messages shown when the backend gives no detail.
const (
	MsgFetchAgentsFailed = "Failed to fetch agents"
	MsgSaveAgentFailed   = "Failed to save agent"
	MsgDeleteAgentFailed = "Failed to delete agent"
)

// AgentInput is what the agent editor submits.
type AgentInput struct {
	Name         string
	Model        string
	SystemPrompt string
}

// AgentUseCase is the agent list/editor behavior shared by every front end.
type AgentUseCase struct {
	agents repository.AgentResource
	events publisher
	logger *zap.Logger
}

// NewAgentUseCase creates the use case. bus may be nil.
func NewAgentUseCase(agents repository.AgentResource, bus eventbus.Bus, logger *zap.Logger) *AgentUseCase {
	return &AgentUseCase{
		agents: agents,
		events: publisher{bus: bus},
		logger: logger.With(zap.String("usecase", "agents")),
	}
}

// List fetches every agent.
func (uc *AgentUseCase) List(ctx context.Context) ([]entity.Agent, error) {
	agents, err := uc.agents.List(ctx)
	if err != nil {
		uc.logger.Warn("Failed to fetch agents", zap.Error(err))
		return nil, err
	}
	return agents, nil
}

// Save creates the agent when id is 0, otherwise updates agent id. Invalid
// input is rejected before any request is made. Only new agents are held to
// the known model set.
func (uc *AgentUseCase) Save(ctx context.Context, id int64, in AgentInput) (entity.Agent, error) {
	build := entity.NewAgent
	if id != 0 {
		build = entity.EditAgent
	}
	agent, err := build(in.Name, in.Model, in.SystemPrompt)
	if err != nil {
		return entity.Agent{}, apperrors.NewInvalidInputErrorWithCause(err.Error(), err)
	}

	kind := entity.ActivityAgentCreated
	var saved entity.Agent
	if id == 0 {
		saved, err = uc.agents.Create(ctx, agent)
	} else {
		kind = entity.ActivityAgentUpdated
		saved, err = uc.agents.Update(ctx, id, agent)
	}
	if err != nil {
		uc.logger.Warn("Failed to save agent", zap.Int64("id", id), zap.Error(err))
		uc.events.publish(ctx, kind, agent.Name, id, err)
		return entity.Agent{}, err
	}

	uc.logger.Info("Agent saved", zap.Int64("id", saved.ID), zap.String("name", saved.Name))
	uc.events.publish(ctx, kind, saved.Name, saved.ID, nil)
	return saved, nil
}

// Delete removes agent id. name is only used for the activity log.
func (uc *AgentUseCase) Delete(ctx context.Context, id int64, name string) error {
	err := uc.agents.Delete(ctx, id)
	uc.events.publish(ctx, entity.ActivityAgentDeleted, name, id, err)
	if err != nil {
		uc.logger.Warn("Failed to delete agent", zap.Int64("id", id), zap.Error(err))
		return err
	}
	uc.logger.Info("Agent deleted", zap.Int64("id", id))
	return nil
}
