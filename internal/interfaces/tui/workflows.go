package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

const msgWorkflowsEmpty = "No workflows created yet."

type workflowsView struct {
	svc   WorkflowService
	theme string
	ctx   context.Context
	gen   int

	mode      listMode
	loading   bool
	saving    bool
	workflows []entity.Workflow
	cursor    int
	form      workflowForm
	pending   *entity.Workflow

	// running holds the workflows whose run request is outstanding. Only
	// their run control is disabled.
	running map[int64]bool
	spinner spinner.Model
	modal   *runModal

	width, height int
}

func newWorkflowsView(svc WorkflowService, theme string) *workflowsView {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = badgeRunning
	return &workflowsView{
		svc:     svc,
		theme:   theme,
		form:    newWorkflowForm(),
		running: make(map[int64]bool),
		spinner: s,
	}
}

func (v *workflowsView) setTheme(theme string) {
	v.theme = theme
}

func (v *workflowsView) init(ctx context.Context, gen int) tea.Cmd {
	v.ctx, v.gen = ctx, gen
	v.mode = modeList
	v.saving = false
	v.pending = nil
	v.modal = nil
	v.running = make(map[int64]bool)
	return v.fetch()
}

func (v *workflowsView) capturesKeys() bool {
	return v.mode == modeForm || v.modal != nil
}

func (v *workflowsView) fetch() tea.Cmd {
	v.loading = true
	ctx, gen, svc := v.ctx, v.gen, v.svc
	return func() tea.Msg {
		workflows, err := svc.List(ctx)
		return workflowsLoadedMsg{gen: gen, workflows: workflows, err: err}
	}
}

func (v *workflowsView) selected() *entity.Workflow {
	if v.cursor < 0 || v.cursor >= len(v.workflows) {
		return nil
	}
	return &v.workflows[v.cursor]
}

// isRunning reports whether id's run control is disabled.
func (v *workflowsView) isRunning(id int64) bool {
	return v.running[id]
}

func (v *workflowsView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		return nil

	case workflowsLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, usecase.MsgFetchWorkflowsFailed))
		}
		v.workflows = msg.workflows
		v.cursor = clamp(v.cursor, len(v.workflows))
		return nil

	case workflowCreatedMsg:
		v.saving = false
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, usecase.MsgCreateWorkflowFailed))
		}
		v.form.reset()
		v.mode = modeList
		return tea.Batch(notify(fmt.Sprintf("Workflow %q created", msg.workflow.Name)), v.fetch())

	case workflowDeletedMsg:
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, usecase.MsgDeleteWorkflowFailed))
		}
		v.workflows = removeWorkflow(v.workflows, msg.id)
		v.cursor = clamp(v.cursor, len(v.workflows))
		return notify("Workflow deleted")

	case runFinishedMsg:
		delete(v.running, msg.id)
		if msg.err != nil {
			return alert("Workflow run failed", apperrors.Detail(msg.err, usecase.MsgRunWorkflowFailed))
		}
		v.modal = newRunModal(msg.name, msg.result, v.theme, v.width, v.height)
		return nil

	case spinner.TickMsg:
		if len(v.running) == 0 {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		if v.modal != nil {
			closed, cmd := v.modal.update(msg)
			if closed {
				v.modal = nil
			}
			return cmd
		}
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

func (v *workflowsView) updateList(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.workflows)-1 {
			v.cursor++
		}
	case "n":
		v.mode = modeForm
		return v.form.reset()
	case "d", "delete":
		if w := v.selected(); w != nil {
			pending := *w
			v.pending = &pending
			v.mode = modeConfirm
		}
	case "r", "enter":
		if w := v.selected(); w != nil {
			return v.run(*w)
		}
	case "ctrl+r":
		return v.fetch()
	}
	return nil
}

// run starts w unless its run is already outstanding.
func (v *workflowsView) run(w entity.Workflow) tea.Cmd {
	if v.running[w.ID] {
		return nil
	}
	first := len(v.running) == 0
	v.running[w.ID] = true

	ctx, gen, svc := v.ctx, v.gen, v.svc
	run := func() tea.Msg {
		result, err := svc.Run(ctx, w.ID, w.Name)
		return runFinishedMsg{gen: gen, id: w.ID, name: w.Name, result: result, err: err}
	}
	if first {
		return tea.Batch(run, v.spinner.Tick)
	}
	return run
}

func (v *workflowsView) updateConfirm(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "y", "Y":
		target := *v.pending
		v.pending = nil
		v.mode = modeList
		ctx, gen, svc := v.ctx, v.gen, v.svc
		return func() tea.Msg {
			err := svc.Delete(ctx, target.ID, target.Name)
			return workflowDeletedMsg{gen: gen, id: target.ID, err: err}
		}
	case "n", "N", "esc":
		v.pending = nil
		v.mode = modeList
	}
	return nil
}

func (v *workflowsView) updateForm(msg tea.Msg) tea.Cmd {
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

func (v *workflowsView) submit() tea.Cmd {
	if v.saving {
		return nil
	}
	if err := v.form.validate(); err != nil {
		return notifyError(usecase.TaskErrorMessage(err))
	}

	v.saving = true
	in := v.form.input()
	ctx, gen, svc := v.ctx, v.gen, v.svc
	return func() tea.Msg {
		created, err := svc.Create(ctx, in)
		return workflowCreatedMsg{gen: gen, workflow: created, err: err}
	}
}

func (v *workflowsView) view(width, _ int) string {
	if v.modal != nil {
		return v.modal.view()
	}
	switch v.mode {
	case modeForm:
		out := v.form.view()
		if v.saving {
			out += "\n" + dimStyle.Render("Saving…")
		}
		return out
	case modeConfirm:
		return confirmView("Delete workflow", v.pending.Name)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Workflows") + "\n\n")
	switch {
	case v.loading && len(v.workflows) == 0:
		b.WriteString(dimStyle.Render("Loading workflows…"))
	case len(v.workflows) == 0:
		b.WriteString(dimStyle.Render(msgWorkflowsEmpty))
	default:
		cards := make([]string, len(v.workflows))
		for i, w := range v.workflows {
			cards[i] = v.workflowCard(w, i == v.cursor, width)
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...))
	}
	b.WriteString(helpStyle.Render("↑/↓ select • r run • n new • d delete • ctrl+r refresh"))
	return b.String()
}

func (v *workflowsView) workflowCard(w entity.Workflow, selected bool, width int) string {
	status := w.Status
	if status == "" {
		status = "unknown"
	}
	head := valueStyle.Bold(true).Render(w.Name) + "  " + badgeStatus.Render(status)
	if v.isRunning(w.ID) {
		head += "  " + v.spinner.View() + badgeRunning.Render(" Running…")
	}
	desc := w.Description
	if desc == "" {
		desc = "No description"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		head,
		dimStyle.Render(desc),
		faintStyle.Render(fmt.Sprintf("ID: %d • %d tasks", w.ID, len(w.Tasks))),
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

func removeWorkflow(list []entity.Workflow, id int64) []entity.Workflow {
	out := list[:0:0]
	for _, w := range list {
		if w.ID != id {
			out = append(out, w)
		}
	}
	return out
}
