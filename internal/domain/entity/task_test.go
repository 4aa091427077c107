package entity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseTasks(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
		wantLen int
	}{
		{name: "blank is empty", text: "   ", wantLen: 0},
		{name: "empty array", text: "[]", wantLen: 0},
		{name: "object not array", text: `{"step":1}`, wantErr: ErrInvalidTaskList},
		{name: "garbage", text: "tasks please", wantErr: ErrInvalidTaskList},
		{name: "truncated", text: `[{"step":1,`, wantErr: ErrInvalidTaskList},
		{name: "trailing data", text: `[] []`, wantErr: ErrInvalidTaskList},
		{name: "missing instruction", text: `[{"step":1,"agent_id":2}]`, wantErr: ErrInvalidTask},
		{name: "duplicate steps", text: `[{"step":1,"agent_id":1,"instruction":"a"},{"step":1,"agent_id":1,"instruction":"b"}]`, wantErr: ErrInvalidTask},
		{name: "valid", text: `[{"step":2,"agent_id":1,"instruction":"b"},{"step":1,"agent_id":3,"instruction":"a"}]`, wantLen: 2},
		{name: "aliases", text: `[{"step":1,"agentId":4,"prompt":"go"}]`, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTasks(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("expected %d tasks, got %d", tt.wantLen, len(got))
			}
		})
	}
}

func TestParseTasks_SortsByStep(t *testing.T) {
	got, err := ParseTasks(`[{"step":3,"agent_id":1,"instruction":"c"},{"step":1,"agent_id":1,"instruction":"a"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Step != 1 || got[1].Step != 3 {
		t.Errorf("tasks not sorted: %+v", got)
	}
}

func TestTaskList_UnmarshalEncodedString(t *testing.T) {
	var w Workflow
	body := `{"id":7,"name":"w","status":"draft","tasks":"[{\"step\":1,\"agent_id\":2,\"instruction\":\"hi\"}]"}`
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(w.Tasks) != 1 || w.Tasks[0].AgentID != 2 {
		t.Fatalf("unexpected tasks: %+v", w.Tasks)
	}

	if err := json.Unmarshal([]byte(`{"tasks":null}`), &w); err != nil {
		t.Fatalf("null tasks: %v", err)
	}
	if w.Tasks == nil || len(w.Tasks) != 0 {
		t.Errorf("null should decode to empty list, got %#v", w.Tasks)
	}
}

func TestTaskList_MarshalNil(t *testing.T) {
	data, err := json.Marshal(Workflow{Name: "w"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"tasks":[]`) {
		t.Errorf("nil tasks should encode as [], got %s", data)
	}
}

func TestTaskList_Problems(t *testing.T) {
	list := TaskList{
		{Step: 0, AgentID: 0, Instruction: " "},
		{Step: 1, AgentID: 1, Instruction: "ok"},
		{Step: 1, AgentID: 1, Instruction: "dup"},
	}
	problems := list.Problems()
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", len(problems), problems)
	}
	last := problems[len(problems)-1]
	if last.Index != 2 || last.Field != "step" {
		t.Errorf("unexpected duplicate problem: %+v", last)
	}
	if last.String() != "task 3: step duplicates task 2" {
		t.Errorf("unexpected message %q", last.String())
	}
}

func TestTaskList_Editing(t *testing.T) {
	var list TaskList
	list = list.Append(1, "first")
	list = list.Append(2, "second")
	list = list.Append(3, "third")
	if list[2].Step != 3 {
		t.Fatalf("append should number sequentially, got %+v", list)
	}

	moved, err := list.Move(2, -2)
	if err != nil {
		t.Fatal(err)
	}
	if moved[0].Instruction != "third" || moved[1].Instruction != "first" || moved[2].Instruction != "second" {
		t.Errorf("unexpected order after move: %+v", moved)
	}
	for i, task := range moved {
		if task.Step != i+1 {
			t.Errorf("move should renumber, task %d has step %d", i, task.Step)
		}
	}
	if list[0].Instruction != "first" {
		t.Error("move must not modify the receiver")
	}

	moved, err = moved.Move(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if moved[0].Instruction != "first" || moved[1].Instruction != "third" {
		t.Errorf("unexpected order after move down: %+v", moved)
	}

	if _, err := list.Move(0, -1); !errors.Is(err, ErrTaskIndexOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}

	removed, err := list.Remove(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 || removed[0].Instruction != "second" || removed[0].Step != 1 {
		t.Errorf("unexpected list after remove: %+v", removed)
	}

	replaced, err := list.Replace(1, Task{Step: 2, AgentID: 9, Instruction: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if replaced[1].AgentID != 9 || list[1].AgentID != 2 {
		t.Errorf("replace should copy: %+v / %+v", replaced, list)
	}
	if _, err := list.Replace(5, Task{}); !errors.Is(err, ErrTaskIndexOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}
}

func TestTaskList_TextRoundTrip(t *testing.T) {
	list := TaskList{{Step: 1, AgentID: 2, Instruction: "summarize"}}
	parsed, err := ParseTasks(list.Text())
	if err != nil {
		t.Fatalf("text should parse back: %v", err)
	}
	if len(parsed) != 1 || parsed[0] != list[0] {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if TaskList(nil).Text() != "[]" {
		t.Error("empty list text should be []")
	}
}
