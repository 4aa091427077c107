package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

type listMode int

const (
	modeList listMode = iota
	modeForm
	modeConfirm
)

const msgAgentsEmpty = "No agents found. Create one to get started."

type agentsView struct {
	svc AgentService
	ctx context.Context
	gen int

	mode    listMode
	loading bool
	saving  bool
	agents  []entity.Agent
	cursor  int
	form    agentForm
	pending *entity.Agent
}

func newAgentsView(svc AgentService) *agentsView {
	return &agentsView{svc: svc, form: newAgentForm()}
}

func (v *agentsView) init(ctx context.Context, gen int) tea.Cmd {
	v.ctx, v.gen = ctx, gen
	v.mode = modeList
	v.saving = false
	v.pending = nil
	return v.fetch()
}

func (v *agentsView) capturesKeys() bool {
	return v.mode == modeForm
}

func (v *agentsView) fetch() tea.Cmd {
	v.loading = true
	ctx, gen, svc := v.ctx, v.gen, v.svc
	return func() tea.Msg {
		agents, err := svc.List(ctx)
		return agentsLoadedMsg{gen: gen, agents: agents, err: err}
	}
}

func (v *agentsView) selected() *entity.Agent {
	if v.cursor < 0 || v.cursor >= len(v.agents) {
		return nil
	}
	return &v.agents[v.cursor]
}

func (v *agentsView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case agentsLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, usecase.MsgFetchAgentsFailed))
		}
		v.agents = msg.agents
		v.cursor = clamp(v.cursor, len(v.agents))
		return nil

	case agentSavedMsg:
		v.saving = false
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, usecase.MsgSaveAgentFailed))
		}
		text := fmt.Sprintf("Agent %q updated", msg.agent.Name)
		if msg.created {
			v.form.clear()
			text = fmt.Sprintf("Agent %q created", msg.agent.Name)
		}
		v.mode = modeList
		return tea.Batch(notify(text), v.fetch())

	case agentDeletedMsg:
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, usecase.MsgDeleteAgentFailed))
		}
		v.agents = removeAgent(v.agents, msg.id)
		v.cursor = clamp(v.cursor, len(v.agents))
		return notify("Agent deleted")

	case tea.KeyMsg:
		switch v.mode {
		case modeForm:
			return v.updateForm(msg)
		case modeConfirm:
			return v.updateConfirm(msg)
		default:
			return v.updateList(msg)
		}
	}

	if v.mode == modeForm {
		return v.updateForm(msg)
	}
	return nil
}

func (v *agentsView) updateList(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.agents)-1 {
			v.cursor++
		}
	case "n":
		v.mode = modeForm
		return v.form.load(nil)
	case "e", "enter":
		if a := v.selected(); a != nil {
			v.mode = modeForm
			return v.form.load(a)
		}
	case "d", "delete":
		if a := v.selected(); a != nil {
			pending := *a
			v.pending = &pending
			v.mode = modeConfirm
		}
	case "ctrl+r":
		return v.fetch()
	}
	return nil
}

func (v *agentsView) updateConfirm(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "y", "Y":
		target := *v.pending
		v.pending = nil
		v.mode = modeList
		ctx, gen, svc := v.ctx, v.gen, v.svc
		return func() tea.Msg {
			err := svc.Delete(ctx, target.ID, target.Name)
			return agentDeletedMsg{gen: gen, id: target.ID, err: err}
		}
	case "n", "N", "esc":
		v.pending = nil
		v.mode = modeList
	}
	return nil
}

func (v *agentsView) updateForm(msg tea.Msg) tea.Cmd {
	action, cmd := v.form.update(msg)
	switch action {
	case formCancel:
		v.mode = modeList
		return nil
	case formSubmit:
		return v.submit()
	}
	return cmd
}

// submit validates locally and only then issues the save.
func (v *agentsView) submit() tea.Cmd {
	if v.saving {
		return nil
	}
	in := v.form.input()
	build := entity.NewAgent
	if v.form.editing() {
		build = entity.EditAgent
	}
	if _, err := build(in.Name, in.Model, in.SystemPrompt); err != nil {
		return notifyError(validationMessage(err))
	}

	v.saving = true
	id := v.form.id
	ctx, gen, svc := v.ctx, v.gen, v.svc
	return func() tea.Msg {
		agent, err := svc.Save(ctx, id, in)
		return agentSavedMsg{gen: gen, created: id == 0, agent: agent, err: err}
	}
}

func (v *agentsView) view(width, _ int) string {
	switch v.mode {
	case modeForm:
		out := v.form.view()
		if v.saving {
			out += "\n" + dimStyle.Render("Saving…")
		}
		return out
	case modeConfirm:
		return confirmView("Delete agent", v.pending.Name)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Agents") + "\n\n")
	switch {
	case v.loading && len(v.agents) == 0:
		b.WriteString(dimStyle.Render("Loading agents…"))
	case len(v.agents) == 0:
		b.WriteString(dimStyle.Render(msgAgentsEmpty))
	default:
		cards := make([]string, len(v.agents))
		for i, a := range v.agents {
			cards[i] = agentCard(a, i == v.cursor, width)
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
	}
	b.WriteString(helpStyle.Render("↑/↓ select • n new • e edit • d delete • ctrl+r refresh"))
	return b.String()
}

func agentCard(a entity.Agent, selected bool, width int) string {
	head := valueStyle.Bold(true).Render(a.Name) + "  " + badgeReady.Render("Ready")
	body := lipgloss.JoinVertical(lipgloss.Left,
		head,
		dimStyle.Render(a.Model.Label()),
		faintStyle.Render(fmt.Sprintf("ID: %d", a.ID)),
	)
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	if width > 8 {
		style = style.Width(min(width-4, 72))
	}
	return style.Render(body)
}

func confirmView(action, name string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		warnTextStyle.Render(action+"?"),
		"",
		valueStyle.Render(fmt.Sprintf("%q will be removed permanently.", name)),
		"",
		faintStyle.Render("y confirm • n cancel"),
	)
	return modalStyle.BorderForeground(colorYellow).Render(body)
}

func removeAgent(list []entity.Agent, id int64) []entity.Agent {
	out := list[:0:0]
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// validationMessage renders a local validation failure for the notice line.
func validationMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
