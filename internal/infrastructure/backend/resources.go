package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/domain/valueobject"
)

var (
	_ repository.AgentResource    = (*Agents)(nil)
	_ repository.WorkflowResource = (*Workflows)(nil)
)

// Agents is the /agents/ collection.
type Agents struct {
	c *Client
}

type agentPayload struct {
	Name         string              `json:"name"`
	Model        valueobject.ModelID `json:"model"`
	SystemPrompt string              `json:"system_prompt"`
}

func newAgentPayload(a entity.Agent) agentPayload {
	return agentPayload{Name: a.Name, Model: a.Model, SystemPrompt: a.SystemPrompt}
}

// List returns every agent.
func (r *Agents) List(ctx context.Context) ([]entity.Agent, error) {
	var out []entity.Agent
	if err := r.c.do(ctx, http.MethodGet, "/agents/", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Agent{}
	}
	return out, nil
}

// Create stores a new agent.
func (r *Agents) Create(ctx context.Context, a entity.Agent) (entity.Agent, error) {
	var out entity.Agent
	if err := r.c.do(ctx, http.MethodPost, "/agents/", newAgentPayload(a), &out); err != nil {
		return entity.Agent{}, err
	}
	return out, nil
}

// Update replaces agent id.
func (r *Agents) Update(ctx context.Context, id int64, a entity.Agent) (entity.Agent, error) {
	var out entity.Agent
	if err := r.c.do(ctx, http.MethodPut, fmt.Sprintf("/agents/%d", id), newAgentPayload(a), &out); err != nil {
		return entity.Agent{}, err
	}
	return out, nil
}

// Delete removes agent id.
func (r *Agents) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/agents/%d", id), nil, nil)
}

// Workflows is the /workflows/ collection.
type Workflows struct {
	c *Client
}

type workflowPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tasks       entity.TaskList `json:"tasks"`
	Status      string          `json:"status"`
}

// List returns every workflow.
func (r *Workflows) List(ctx context.Context) ([]entity.Workflow, error) {
	var out []entity.Workflow
	if err := r.c.do(ctx, http.MethodGet, "/workflows/", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Workflow{}
	}
	return out, nil
}

// Create stores a new workflow.
func (r *Workflows) Create(ctx context.Context, w entity.Workflow) (entity.Workflow, error) {
	status := w.Status
	if status == "" {
		status = entity.WorkflowStatusActive
	}
	payload := workflowPayload{
		Name:        w.Name,
		Description: w.Description,
		Tasks:       w.Tasks,
		Status:      status,
	}
	var out entity.Workflow
	if err := r.c.do(ctx, http.MethodPost, "/workflows/", payload, &out); err != nil {
		return entity.Workflow{}, err
	}
	return out, nil
}

// Delete removes workflow id.
func (r *Workflows) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, fmt.Sprintf("/workflows/%d", id), nil, nil)
}

// Run executes workflow id and waits for its result.
func (r *Workflows) Run(ctx context.Context, id int64) (*entity.RunResult, error) {
	var out entity.RunResult
	if err := r.c.do(ctx, http.MethodPost, fmt.Sprintf("/workflows/%d/run", id), nil, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = entity.RunOutputs{}
	}
	return &out, nil
}
