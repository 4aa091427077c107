package repository

import (
	"context"

	"github.com/agentops/console/internal/domain/entity"
)

// Lister fetches every record of one type.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// Creator creates a record and returns the stored copy.
type Creator[T any] interface {
	Create(ctx context.Context, item T) (T, error)
}

// Updater replaces the record with the given id.
type Updater[T any] interface {
	Update(ctx context.Context, id int64, item T) (T, error)
}

// Deleter removes the record with the given id.
type Deleter interface {
	Delete(ctx context.Context, id int64) error
}

// Resource is the full typed data-access capability for one record type.
// Views take the narrowest of the interfaces above that they need.
type Resource[T any] interface {
	Lister[T]
	Creator[T]
	Updater[T]
	Deleter
}

// AgentResource is the agent collection on the backend.
type AgentResource interface {
	Resource[entity.Agent]
}

// WorkflowResource is the workflow collection on the backend. The backend
// has no workflow update route, so it lacks Updater.
type WorkflowResource interface {
	Lister[entity.Workflow]
	Creator[entity.Workflow]
	Deleter
	Runner
}

// Runner executes a stored workflow.
type Runner interface {
	Run(ctx context.Context, id int64) (*entity.RunResult, error)
}
