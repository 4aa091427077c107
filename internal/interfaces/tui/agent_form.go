package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/valueobject"
)

type formAction int

const (
	formNone formAction = iota
	formSubmit
	formCancel
)

const (
	agentFieldName = iota
	agentFieldModel
	agentFieldPrompt
	agentFieldCount
)

// agentForm edits one agent. id is 0 while creating.
type agentForm struct {
	id     int64
	name   textinput.Model
	model  valueobject.ModelID
	prompt textarea.Model
	focus  int
}

func newAgentForm() agentForm {
	name := textinput.New()
	name.Placeholder = "e.g. Researcher"
	name.CharLimit = 0 // SetValue truncates to the limit
	name.Width = 48

	prompt := textarea.New()
	prompt.Placeholder = "You are a helpful assistant…"
	prompt.SetWidth(64)
	prompt.SetHeight(6)
	prompt.ShowLineNumbers = false

	return agentForm{name: name, prompt: prompt, model: valueobject.DefaultModel}
}

// load fills the form from a, or clears it for a new agent when a is nil.
func (f *agentForm) load(a *entity.Agent) tea.Cmd {
	if a == nil {
		f.clear()
	} else {
		f.id = a.ID
		f.name.SetValue(a.Name)
		f.model = a.Model
		f.prompt.SetValue(a.SystemPrompt)
	}
	return f.setFocus(agentFieldName)
}

func (f *agentForm) clear() {
	f.id = 0
	f.name.SetValue("")
	f.model = valueobject.DefaultModel
	f.prompt.SetValue("")
}

func (f *agentForm) editing() bool {
	return f.id != 0
}

func (f *agentForm) input() usecase.AgentInput {
	return usecase.AgentInput{
		Name:         f.name.Value(),
		Model:        string(f.model),
		SystemPrompt: f.prompt.Value(),
	}
}

func (f *agentForm) setFocus(i int) tea.Cmd {
	f.focus = (i + agentFieldCount) % agentFieldCount
	f.name.Blur()
	f.prompt.Blur()
	switch f.focus {
	case agentFieldName:
		return f.name.Focus()
	case agentFieldPrompt:
		return f.prompt.Focus()
	}
	return nil
}

func (f *agentForm) update(msg tea.Msg) (formAction, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return formCancel, nil
		case "ctrl+s":
			return formSubmit, nil
		case "tab":
			return formNone, f.setFocus(f.focus + 1)
		case "shift+tab":
			return formNone, f.setFocus(f.focus - 1)
		case "enter":
			if f.focus != agentFieldPrompt {
				return formNone, f.setFocus(f.focus + 1)
			}
		}
		if f.focus == agentFieldModel {
			switch key.String() {
			case "right", "l", " ":
				f.model = f.model.Next()
			case "left", "h":
				f.model = prevModel(f.model)
			}
			return formNone, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case agentFieldName:
		f.name, cmd = f.name.Update(msg)
	case agentFieldPrompt:
		f.prompt, cmd = f.prompt.Update(msg)
	}
	return formNone, cmd
}

func prevModel(m valueobject.ModelID) valueobject.ModelID {
	opts := valueobject.ModelOptions()
	next := m
	for i := 0; i < len(opts)-1; i++ {
		next = next.Next()
	}
	return next
}

func (f *agentForm) view() string {
	var b strings.Builder
	if f.editing() {
		b.WriteString(titleStyle.Render("Edit Agent") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Create Agent") + "\n\n")
	}

	b.WriteString(fieldLabel("Name", f.focus == agentFieldName) + "\n")
	b.WriteString(f.name.View() + "\n\n")

	b.WriteString(fieldLabel("Model", f.focus == agentFieldModel) + "\n")
	var opts []string
	for _, opt := range valueobject.ModelOptions() {
		if opt.ID == f.model {
			opts = append(opts, focusedFieldStyle.Render("◉ "+opt.Label))
		} else {
			opts = append(opts, dimStyle.Render("○ "+opt.Label))
		}
	}
	if !f.model.Known() {
		opts = append(opts, warnTextStyle.Render("◉ "+string(f.model)))
	}
	b.WriteString(strings.Join(opts, "  ") + "\n\n")

	b.WriteString(fieldLabel("System Prompt", f.focus == agentFieldPrompt) + "\n")
	b.WriteString(f.prompt.View() + "\n")

	b.WriteString(helpStyle.Render("tab next field • ←/→ model • ctrl+s save • esc cancel"))
	return b.String()
}

func fieldLabel(label string, focused bool) string {
	if focused {
		return focusedFieldStyle.Render("› " + label)
	}
	return labelStyle.Render("  " + label)
}
