package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Task is one workflow step: it delegates Instruction to the agent AgentID.
type Task struct {
	Step        int    `json:"step"`
	AgentID     int64  `json:"agent_id"`
	Instruction string `json:"instruction"`
}

// UnmarshalJSON accepts the agentId and prompt spellings the backend also
// understands.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		Step        int    `json:"step"`
		AgentID     *int64 `json:"agent_id"`
		AgentIDAlt  *int64 `json:"agentId"`
		Instruction string `json:"instruction"`
		Prompt      string `json:"prompt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Step = raw.Step
	switch {
	case raw.AgentID != nil:
		t.AgentID = *raw.AgentID
	case raw.AgentIDAlt != nil:
		t.AgentID = *raw.AgentIDAlt
	}
	t.Instruction = raw.Instruction
	if t.Instruction == "" {
		t.Instruction = raw.Prompt
	}
	return nil
}

// TaskProblem describes one invalid field of one task row.
type TaskProblem struct {
	Index   int
	Field   string
	Message string
}

func (p TaskProblem) String() string {
	return fmt.Sprintf("task %d: %s %s", p.Index+1, p.Field, p.Message)
}

// Problems returns the validation failures of a single task, ignoring step
// uniqueness which needs the whole list.
func (t Task) Problems(index int) []TaskProblem {
	var out []TaskProblem
	if t.Step < 1 {
		out = append(out, TaskProblem{Index: index, Field: "step", Message: "must be at least 1"})
	}
	if t.AgentID < 1 {
		out = append(out, TaskProblem{Index: index, Field: "agent_id", Message: "must reference an agent"})
	}
	if strings.TrimSpace(t.Instruction) == "" {
		out = append(out, TaskProblem{Index: index, Field: "instruction", Message: "is required"})
	}
	return out
}

// TaskList is the ordered task sequence of a workflow.
type TaskList []Task

// UnmarshalJSON accepts a JSON array, null, or a string holding a JSON
// array. Older backend rows store tasks as an encoded string.
func (l *TaskList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = TaskList{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTaskList, err)
	}
	*l = TaskList(tasks)
	return nil
}

// MarshalJSON always encodes an array, never null.
func (l TaskList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Task(l))
}

// ParseTasks parses raw editor text into a validated, step-ordered task
// list. Blank text is an empty list.
func ParseTasks(text string) (TaskList, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TaskList{}, nil
	}
	if text[0] != '[' {
		return nil, ErrInvalidTaskList
	}
	var tasks []Task
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaskList, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after array", ErrInvalidTaskList)
	}
	list := TaskList(tasks)
	if err := list.Validate(); err != nil {
		return nil, err
	}
	return list.Sorted(), nil
}

// Problems validates every row plus step uniqueness.
func (l TaskList) Problems() []TaskProblem {
	var out []TaskProblem
	seen := make(map[int]int, len(l))
	for i, t := range l {
		out = append(out, t.Problems(i)...)
		if t.Step < 1 {
			continue
		}
		if first, dup := seen[t.Step]; dup {
			out = append(out, TaskProblem{
				Index:   i,
				Field:   "step",
				Message: fmt.Sprintf("duplicates task %d", first+1),
			})
			continue
		}
		seen[t.Step] = i
	}
	return out
}

// Validate returns the first problem as an ErrInvalidTask error.
func (l TaskList) Validate() error {
	if problems := l.Problems(); len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTask, problems[0])
	}
	return nil
}

// Sorted returns a copy ordered by step. Ties keep their input order.
func (l TaskList) Sorted() TaskList {
	out := make(TaskList, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

// Renumbered returns a copy whose steps are 1..n in list order.
func (l TaskList) Renumbered() TaskList {
	out := make(TaskList, len(l))
	for i, t := range l {
		t.Step = i + 1
		out[i] = t
	}
	return out
}

// Append adds a task after the last step.
func (l TaskList) Append(agentID int64, instruction string) TaskList {
	next := 1
	for _, t := range l {
		if t.Step >= next {
			next = t.Step + 1
		}
	}
	out := make(TaskList, len(l), len(l)+1)
	copy(out, l)
	return append(out, Task{Step: next, AgentID: agentID, Instruction: instruction})
}

// Replace swaps the task at index i.
func (l TaskList) Replace(i int, t Task) (TaskList, error) {
	if i < 0 || i >= len(l) {
		return l, ErrTaskIndexOutOfRange
	}
	out := make(TaskList, len(l))
	copy(out, l)
	out[i] = t
	return out, nil
}

// Remove drops the task at index i and renumbers the remainder.
func (l TaskList) Remove(i int) (TaskList, error) {
	if i < 0 || i >= len(l) {
		return l, ErrTaskIndexOutOfRange
	}
	out := make(TaskList, 0, len(l)-1)
	out = append(out, l[:i]...)
	out = append(out, l[i+1:]...)
	return out.Renumbered(), nil
}

// Move shifts the task at index i by delta positions and renumbers.
func (l TaskList) Move(i, delta int) (TaskList, error) {
	j := i + delta
	if i < 0 || i >= len(l) || j < 0 || j >= len(l) {
		return l, ErrTaskIndexOutOfRange
	}
	out := make(TaskList, len(l))
	copy(out, l)
	t := out[i]
	if delta > 0 {
		copy(out[i:j], out[i+1:j+1])
	} else {
		copy(out[j+1:i+1], out[j:i])
	}
	out[j] = t
	return out.Renumbered(), nil
}

// Text renders the list as indented JSON for the raw editor.
func (l TaskList) Text() string {
	if len(l) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
