package entity

import "strings"

// Workflow statuses the backend is known to use. Status is free-form, so
// other values are passed through untouched.
const (
	WorkflowStatusDraft    = "draft"
	WorkflowStatusActive   = "active"
	WorkflowStatusArchived = "archived"
)

// Workflow is a named, ordered list of tasks.
type Workflow struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Tasks       TaskList   `json:"tasks"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// NewWorkflow builds an unsaved workflow. New workflows are created active.
func NewWorkflow(name, description string, tasks TaskList) (Workflow, error) {
	w := Workflow{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      WorkflowStatusActive,
		Tasks:       tasks.Sorted(),
	}
	if err := w.Validate(); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

// Validate enforces the creation invariants: a name and a valid task list.
func (w Workflow) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrWorkflowNameRequired
	}
	return w.Tasks.Validate()
}

// Key returns the record identifier used by list views.
func (w Workflow) Key() int64 {
	return w.ID
}
