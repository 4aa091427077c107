package entity

import "errors"

var (
	// Agent errors
	ErrAgentNameRequired    = errors.New("agent name is required")
	ErrSystemPromptRequired = errors.New("system prompt is required")
	ErrUnknownModel         = errors.New("unknown model")

	// Workflow errors
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrInvalidTaskList      = errors.New("tasks must be a JSON array of task objects")
	ErrInvalidTask          = errors.New("invalid task")
	ErrTaskIndexOutOfRange  = errors.New("task index out of range")

	// Preferences errors
	ErrInvalidTheme = errors.New("theme must be dark or light")
)
