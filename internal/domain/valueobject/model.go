package valueobject

import "fmt"

// ModelID identifies the LLM an agent is configured to use. The backend
// accepts a fixed set of identifiers.
type ModelID string

const (
	ModelGPT4o          ModelID = "gpt-4o"
	ModelClaude35Sonnet ModelID = "claude-3-5-sonnet"
	ModelLlama3Local    ModelID = "llama-3-local"
	DefaultModel                = ModelGPT4o
)

// ModelOption pairs a model identifier with its display label.
type ModelOption struct {
	ID    ModelID
	Label string
}

var modelOptions = []ModelOption{
	{ID: ModelGPT4o, Label: "GPT-4o"},
	{ID: ModelClaude35Sonnet, Label: "Claude 3.5 Sonnet"},
	{ID: ModelLlama3Local, Label: "Llama 3 (Local)"},
}

// ModelOptions returns the selectable models in display order.
func ModelOptions() []ModelOption {
	out := make([]ModelOption, len(modelOptions))
	copy(out, modelOptions)
	return out
}

// ParseModelID validates s against the known model set. An empty string
// yields DefaultModel.
func ParseModelID(s string) (ModelID, error) {
	if s == "" {
		return DefaultModel, nil
	}
	for _, opt := range modelOptions {
		if string(opt.ID) == s {
			return opt.ID, nil
		}
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// Label returns the display label, or the raw identifier for models the
// console does not know (records created elsewhere may carry those).
func (m ModelID) Label() string {
	for _, opt := range modelOptions {
		if opt.ID == m {
			return opt.Label
		}
	}
	return string(m)
}

// Known reports whether m is one of the selectable models.
func (m ModelID) Known() bool {
	for _, opt := range modelOptions {
		if opt.ID == m {
			return true
		}
	}
	return false
}

// Next cycles to the following model in display order. Unknown models
// restart at the first option.
func (m ModelID) Next() ModelID {
	for i, opt := range modelOptions {
		if opt.ID == m {
			return modelOptions[(i+1)%len(modelOptions)].ID
		}
	}
	return modelOptions[0].ID
}
