package entity

import (
	"bytes"
	"encoding/json"
	"sort"
)

// RunStatusSuccess is the status the backend reports for a completed run.
const RunStatusSuccess = "success"

// RunResult is the backend's answer to a workflow run.
type RunResult struct {
	Status   string       `json:"status"`
	Results  RunOutputs   `json:"results"`
	Messages []RunMessage `json:"messages"`
}

// RunOutputs maps agent name to that agent's output text.
type RunOutputs map[string]string

// UnmarshalJSON tolerates non-string outputs by keeping their JSON text.
func (o *RunOutputs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = RunOutputs{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(RunOutputs, len(raw))
	for k, v := range raw {
		out[k] = rawText(v)
	}
	*o = out
	return nil
}

// RunMessage is one entry of the run's chronological message log.
type RunMessage struct {
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// UnmarshalJSON tolerates structured content the same way RunOutputs does.
func (m *RunMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string          `json:"name"`
		Role    string          `json:"role"`
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Name = raw.Name
	m.Role = raw.Role
	if m.Role == "" {
		m.Role = raw.Type
	}
	m.Content = rawText(raw.Content)
	return nil
}

// Speaker is the label shown next to a message.
func (m RunMessage) Speaker() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Role != "":
		return m.Role
	default:
		return "system"
	}
}

// RunEntry is one agent's output, for ordered display.
type RunEntry struct {
	Agent  string
	Output string
}

// Entries returns one entry per results key, sorted by agent name.
func (r RunResult) Entries() []RunEntry {
	out := make([]RunEntry, 0, len(r.Results))
	for agent, output := range r.Results {
		out = append(out, RunEntry{Agent: agent, Output: output})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// Succeeded reports whether the backend marked the run successful.
func (r RunResult) Succeeded() bool {
	return r.Status == RunStatusSuccess
}

func rawText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
