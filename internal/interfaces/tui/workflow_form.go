package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
)

const (
	wfFieldName = iota
	wfFieldDescription
	wfFieldAgent
	wfFieldInstruction
	wfFieldTasks
	wfFieldCount
)

// workflowForm creates a workflow. Tasks are edited row by row, or as raw
// JSON after ctrl+t.
type workflowForm struct {
	name        textinput.Model
	description textinput.Model

	// draft row
	agentID     textinput.Model
	instruction textinput.Model
	draftErr    string
	editRow     int // -1 appends, otherwise the draft replaces this row

	tasks  entity.TaskList
	cursor int

	raw     textarea.Model
	rawMode bool

	focus int
}

func newWorkflowForm() workflowForm {
	name := textinput.New()
	name.Placeholder = "e.g. Research pipeline"
	name.CharLimit = 120
	name.Width = 48

	desc := textinput.New()
	desc.Placeholder = "optional"
	desc.Width = 64

	agentID := textinput.New()
	agentID.Placeholder = "agent id"
	agentID.CharLimit = 12
	agentID.Width = 10
	agentID.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("agent id must be numeric")
			}
		}
		return nil
	}

	instr := textinput.New()
	instr.Placeholder = "instruction for this step"
	instr.Width = 56

	raw := textarea.New()
	raw.Placeholder = `[{"step": 1, "agent_id": 1, "instruction": "..."}]`
	raw.SetWidth(72)
	raw.SetHeight(8)

	return workflowForm{
		name:        name,
		description: desc,
		agentID:     agentID,
		instruction: instr,
		raw:         raw,
		editRow:     -1,
	}
}

func (f *workflowForm) reset() tea.Cmd {
	f.name.SetValue("")
	f.description.SetValue("")
	f.clearDraft()
	f.tasks = nil
	f.cursor = 0
	f.raw.SetValue("")
	f.rawMode = false
	return f.setFocus(wfFieldName)
}

func (f *workflowForm) clearDraft() {
	f.agentID.SetValue("")
	f.instruction.SetValue("")
	f.draftErr = ""
	f.editRow = -1
}

// input returns what to submit. In raw mode the text is passed through for
// parsing.
func (f *workflowForm) input() usecase.WorkflowInput {
	in := usecase.WorkflowInput{
		Name:        f.name.Value(),
		Description: f.description.Value(),
		Tasks:       f.tasks,
	}
	if f.rawMode {
		in.TasksText = f.raw.Value()
		if strings.TrimSpace(in.TasksText) == "" {
			in.TasksText = "[]"
		}
	}
	return in
}

// validate runs the checks the use case would run, so invalid input never
// leaves the form.
func (f *workflowForm) validate() error {
	in := f.input()
	tasks := in.Tasks
	if f.rawMode {
		parsed, err := entity.ParseTasks(in.TasksText)
		if err != nil {
			return err
		}
		tasks = parsed
	}
	_, err := entity.NewWorkflow(in.Name, in.Description, tasks)
	return err
}

func (f *workflowForm) fieldCount() int {
	if f.rawMode {
		return 3 // name, description, raw
	}
	return wfFieldCount
}

func (f *workflowForm) setFocus(i int) tea.Cmd {
	n := f.fieldCount()
	f.focus = (i + n) % n
	f.name.Blur()
	f.description.Blur()
	f.agentID.Blur()
	f.instruction.Blur()
	f.raw.Blur()

	switch {
	case f.focus == wfFieldName:
		return f.name.Focus()
	case f.focus == wfFieldDescription:
		return f.description.Focus()
	case f.rawMode:
		return f.raw.Focus()
	case f.focus == wfFieldAgent:
		return f.agentID.Focus()
	case f.focus == wfFieldInstruction:
		return f.instruction.Focus()
	}
	return nil
}

// toggleRaw switches between the row editor and raw JSON. Leaving raw mode
// requires the text to parse.
func (f *workflowForm) toggleRaw() error {
	if !f.rawMode {
		f.raw.SetValue(f.tasks.Text())
		f.rawMode = true
		f.setFocus(2)
		return nil
	}
	tasks, err := entity.ParseTasks(f.raw.Value())
	if err != nil && !isTaskProblem(err) {
		return err
	}
	if err != nil {
		// rows with problems are kept so they can be fixed in the editor
		if perr := unmarshalLenient(f.raw.Value(), &tasks); perr != nil {
			return err
		}
	}
	f.tasks = tasks
	f.cursor = clamp(f.cursor, len(f.tasks))
	f.rawMode = false
	f.setFocus(wfFieldTasks)
	return nil
}

// commitDraft appends the draft row, or replaces the row being edited.
func (f *workflowForm) commitDraft() {
	idText := strings.TrimSpace(f.agentID.Value())
	instr := strings.TrimSpace(f.instruction.Value())
	agentID, err := strconv.ParseInt(idText, 10, 64)
	switch {
	case idText == "" || err != nil || agentID < 1:
		f.draftErr = "agent id must be a positive number"
		return
	case instr == "":
		f.draftErr = "instruction is required"
		return
	}

	if f.editRow >= 0 {
		row := f.tasks[f.editRow]
		row.AgentID = agentID
		row.Instruction = instr
		if replaced, err := f.tasks.Replace(f.editRow, row); err == nil {
			f.tasks = replaced
		}
		f.cursor = f.editRow
	} else {
		f.tasks = f.tasks.Append(agentID, instr)
		f.cursor = len(f.tasks) - 1
	}
	f.clearDraft()
	f.setFocus(wfFieldAgent)
}

func (f *workflowForm) update(msg tea.Msg) (formAction, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch key.String() {
		case "esc":
			if f.editRow >= 0 {
				f.clearDraft()
				return formNone, nil
			}
			return formCancel, nil
		case "ctrl+s":
			return formSubmit, nil
		case "ctrl+t":
			if err := f.toggleRaw(); err != nil {
				return formNone, notifyError(usecase.TaskErrorMessage(err))
			}
			return formNone, nil
		case "tab":
			return formNone, f.setFocus(f.focus + 1)
		case "shift+tab":
			return formNone, f.setFocus(f.focus - 1)
		}

		if !f.rawMode {
			switch f.focus {
			case wfFieldTasks:
				return formNone, f.updateRows(key)
			case wfFieldName, wfFieldDescription, wfFieldAgent:
				if key.String() == "enter" {
					return formNone, f.setFocus(f.focus + 1)
				}
			case wfFieldInstruction:
				if key.String() == "enter" {
					f.commitDraft()
					return formNone, nil
				}
			}
		} else if f.focus != 2 && key.String() == "enter" {
			return formNone, f.setFocus(f.focus + 1)
		}
	}

	var cmd tea.Cmd
	switch {
	case f.focus == wfFieldName:
		f.name, cmd = f.name.Update(msg)
	case f.focus == wfFieldDescription:
		f.description, cmd = f.description.Update(msg)
	case f.rawMode:
		f.raw, cmd = f.raw.Update(msg)
	case f.focus == wfFieldAgent:
		f.agentID, cmd = f.agentID.Update(msg)
	case f.focus == wfFieldInstruction:
		f.instruction, cmd = f.instruction.Update(msg)
	}
	return formNone, cmd
}

func (f *workflowForm) updateRows(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if f.cursor > 0 {
			f.cursor--
		}
	case "down", "j":
		if f.cursor < len(f.tasks)-1 {
			f.cursor++
		}
	case "K", "shift+up":
		if moved, err := f.tasks.Move(f.cursor, -1); err == nil {
			f.tasks = moved
			f.cursor--
		}
	case "J", "shift+down":
		if moved, err := f.tasks.Move(f.cursor, 1); err == nil {
			f.tasks = moved
			f.cursor++
		}
	case "d", "delete", "backspace":
		if removed, err := f.tasks.Remove(f.cursor); err == nil {
			f.tasks = removed
			f.cursor = clamp(f.cursor, len(f.tasks))
		}
	case "e", "enter":
		if f.cursor < len(f.tasks) {
			row := f.tasks[f.cursor]
			f.editRow = f.cursor
			f.agentID.SetValue(strconv.FormatInt(row.AgentID, 10))
			f.instruction.SetValue(row.Instruction)
			f.draftErr = ""
			return f.setFocus(wfFieldAgent)
		}
	}
	return nil
}

func (f *workflowForm) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create Workflow") + "\n\n")

	b.WriteString(fieldLabel("Name", f.focus == wfFieldName) + "\n")
	b.WriteString(f.name.View() + "\n\n")
	b.WriteString(fieldLabel("Description", f.focus == wfFieldDescription) + "\n")
	b.WriteString(f.description.View() + "\n\n")

	if f.rawMode {
		b.WriteString(fieldLabel("Tasks (JSON)", f.focus == 2) + "\n")
		b.WriteString(f.raw.View() + "\n")
		b.WriteString(helpStyle.Render("ctrl+t row editor • ctrl+s save • esc cancel"))
		return b.String()
	}

	b.WriteString(fieldLabel("Tasks", f.focus == wfFieldTasks) + "\n")
	if len(f.tasks) == 0 {
		b.WriteString(faintStyle.Render("  no tasks yet") + "\n")
	}
	problems := make(map[int][]string)
	for _, p := range f.tasks.Problems() {
		problems[p.Index] = append(problems[p.Index], p.Field+" "+p.Message)
	}
	for i, t := range f.tasks {
		cursor := "  "
		if f.focus == wfFieldTasks && i == f.cursor {
			cursor = focusedFieldStyle.Render("› ")
		}
		line := fmt.Sprintf("%s%s agent %s  %s", cursor,
			labelStyle.Render(fmt.Sprintf("%d.", t.Step)),
			valueStyle.Render(strconv.FormatInt(t.AgentID, 10)),
			t.Instruction)
		if i == f.editRow {
			line += warnTextStyle.Render("  (editing)")
		}
		b.WriteString(line + "\n")
		for _, p := range problems[i] {
			b.WriteString("     " + errorTextStyle.Render(p) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(fieldLabel("Agent", f.focus == wfFieldAgent) + " " + f.agentID.View() + "\n")
	b.WriteString(fieldLabel("Instruction", f.focus == wfFieldInstruction) + " " + f.instruction.View() + "\n")
	if f.draftErr != "" {
		b.WriteString("  " + errorTextStyle.Render(f.draftErr) + "\n")
	}

	b.WriteString(helpStyle.Render("enter add row • J/K move • d remove • e edit • ctrl+t raw JSON • ctrl+s save • esc cancel"))
	return b.String()
}

func isTaskProblem(err error) bool {
	return errors.Is(err, entity.ErrInvalidTask)
}

func unmarshalLenient(text string, out *entity.TaskList) error {
	return json.Unmarshal([]byte(text), out)
}
