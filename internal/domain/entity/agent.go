package entity

import (
	"fmt"
	"strings"

	"github.com/agentops/console/internal/domain/valueobject"
)

// Agent is a named configuration pairing a model with a system prompt.
// The backend owns agents; the console only holds copies fetched from it.
type Agent struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Model        valueobject.ModelID `json:"model"`
	Description  string              `json:"description,omitempty"`
	SystemPrompt string              `json:"system_prompt"`
	CreatedAt    *Timestamp          `json:"created_at,omitempty"`
	UpdatedAt    *Timestamp          `json:"updated_at,omitempty"`
}

// NewAgent builds an unsaved agent from editor input. The model string is
// validated against the known set; an empty model selects the default.
func NewAgent(name, model, systemPrompt string) (Agent, error) {
	id, err := valueobject.ParseModelID(strings.TrimSpace(model))
	if err != nil {
		return Agent{}, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return buildAgent(name, id, systemPrompt)
}

// EditAgent builds the replacement for an existing agent. The model is kept
// as given, so a record created elsewhere with a model outside the known set
// can still be renamed or re-prompted. An empty model selects the default.
func EditAgent(name, model, systemPrompt string) (Agent, error) {
	id := valueobject.ModelID(strings.TrimSpace(model))
	if id == "" {
		id = valueobject.DefaultModel
	}
	return buildAgent(name, id, systemPrompt)
}

func buildAgent(name string, model valueobject.ModelID, systemPrompt string) (Agent, error) {
	a := Agent{
		Name:         strings.TrimSpace(name),
		Model:        model,
		SystemPrompt: systemPrompt,
	}
	if err := a.Validate(); err != nil {
		return Agent{}, err
	}
	return a, nil
}

// Validate enforces the fields required for create and update.
func (a Agent) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrAgentNameRequired
	}
	if strings.TrimSpace(a.SystemPrompt) == "" {
		return ErrSystemPromptRequired
	}
	return nil
}

// IsNew reports whether the agent has not been saved yet.
func (a Agent) IsNew() bool {
	return a.ID == 0
}

// Key returns the record identifier used by list views.
func (a Agent) Key() int64 {
	return a.ID
}
