package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

// --- fakes ---

type fakeAgentService struct {
	mu      sync.Mutex
	agents  []entity.Agent
	lists   int
	saves   []usecase.AgentInput
	saveIDs []int64
	deletes []int64
}

func (f *fakeAgentService) List(context.Context) ([]entity.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]entity.Agent(nil), f.agents...), nil
}

func (f *fakeAgentService) Save(_ context.Context, id int64, in usecase.AgentInput) (entity.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, in)
	f.saveIDs = append(f.saveIDs, id)
	if id == 0 {
		id = int64(len(f.agents) + 1)
	}
	return entity.Agent{ID: id, Name: in.Name, SystemPrompt: in.SystemPrompt}, nil
}

func (f *fakeAgentService) Delete(_ context.Context, id int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

type fakeWorkflowService struct {
	mu        sync.Mutex
	workflows []entity.Workflow
	creates   []usecase.WorkflowInput
	deletes   []int64
	lists     int
	runs      []int64
	result    *entity.RunResult
	runErr    error
	gate      chan struct{}
}

func (f *fakeWorkflowService) List(context.Context) ([]entity.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]entity.Workflow(nil), f.workflows...), nil
}

func (f *fakeWorkflowService) Create(_ context.Context, in usecase.WorkflowInput) (entity.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	return entity.Workflow{ID: 99, Name: in.Name}, nil
}

func (f *fakeWorkflowService) Delete(_ context.Context, id int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeWorkflowService) Run(ctx context.Context, id int64, _ string) (*entity.RunResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, id)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.runErr
}

type fakeSettingsService struct {
	mu    sync.Mutex
	prefs entity.Preferences
	saves int
}

func (f *fakeSettingsService) Load(context.Context) (entity.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs, nil
}

func (f *fakeSettingsService) Save(_ context.Context, p entity.Preferences) (entity.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.prefs = p
	return p, nil
}

type fakeDashboardService struct{}

func (fakeDashboardService) Summary(context.Context) (*usecase.Dashboard, error) {
	return &usecase.Dashboard{AgentCount: 2, Stats: entity.ActivityStats{TotalRuns: 4, FailedRuns: 1}}, nil
}

// --- harness ---

type harness struct {
	t         *testing.T
	m         *Model
	agents    *fakeAgentService
	workflows *fakeWorkflowService
	settings  *fakeSettingsService
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:         t,
		agents:    &fakeAgentService{},
		workflows: &fakeWorkflowService{},
		settings:  &fakeSettingsService{prefs: entity.DefaultPreferences()},
	}
	h.m = New(Services{
		Agents:    h.agents,
		Workflows: h.workflows,
		Settings:  h.settings,
		Dashboard: fakeDashboardService{},
		NoticeTTL: func() time.Duration { return time.Hour },
	}, zap.NewNop())
	return h
}

func (h *harness) start() *harness {
	h.pump(h.m.Init())
	return h
}

// press sends one key and runs the resulting commands.
func (h *harness) press(keys ...string) {
	for _, k := range keys {
		_, cmd := h.m.Update(keyMsg(k))
		h.pump(cmd)
	}
}

// pump executes cmd and feeds back the messages this package defines.
// Commands that do not finish promptly (timers, blocked requests) are
// abandoned.
func (h *harness) pump(cmd tea.Cmd) {
	h.t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case dashboardLoadedMsg, agentsLoadedMsg, agentSavedMsg, agentDeletedMsg,
			workflowsLoadedMsg, workflowCreatedMsg, workflowDeletedMsg, runFinishedMsg,
			settingsLoadedMsg, settingsSavedMsg, showNoticeMsg, showAlertMsg:
			_, next := h.m.Update(msg)
			h.pump(next)
		}
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(c)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// --- tests ---

func TestAgentsView_RendersOneCardPerAgent(t *testing.T) {
	h := newHarness(t)
	h.agents.agents = []entity.Agent{
		{ID: 1, Name: "Researcher", Model: "gpt-4o"},
		{ID: 2, Name: "Writer", Model: "claude-3-5-sonnet"},
		{ID: 3, Name: "Critic", Model: "llama-3-local"},
	}
	h.start()
	h.press("2")

	out := h.m.View()
	if got := strings.Count(out, "Ready"); got != 3 {
		t.Errorf("expected 3 cards, got %d", got)
	}
	for _, want := range []string{"Researcher", "Claude 3.5 Sonnet", "ID: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("view should contain %q", want)
		}
	}
	if strings.Contains(out, msgAgentsEmpty) {
		t.Error("empty state should not show with agents")
	}
}

func TestAgentsView_EmptyState(t *testing.T) {
	h := newHarness(t).start()
	h.press("2")
	if !strings.Contains(h.m.View(), msgAgentsEmpty) {
		t.Error("expected empty-state placeholder")
	}
}

func TestAgentForm_CreateIssuesOneRequest(t *testing.T) {
	h := newHarness(t).start()
	h.press("2", "n")

	v := h.m.agents
	if v.mode != modeForm {
		t.Fatal("n should open the editor")
	}
	v.form.name.SetValue("Researcher")
	v.form.prompt.SetValue("You research things.")
	listsBefore := h.agents.lists
	h.press("ctrl+s")

	if len(h.agents.saves) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(h.agents.saves))
	}
	got := h.agents.saves[0]
	if got.Name != "Researcher" || got.SystemPrompt != "You research things." || got.Model != "gpt-4o" {
		t.Errorf("unexpected input %+v", got)
	}
	if h.agents.saveIDs[0] != 0 {
		t.Error("new agent should be created, not updated")
	}
	if v.mode != modeList {
		t.Error("view should return to the list")
	}
	if h.agents.lists != listsBefore+1 {
		t.Error("list should be re-fetched after save")
	}
	if v.form.name.Value() != "" || v.form.prompt.Value() != "" {
		t.Error("form should be cleared after create")
	}
	if !strings.Contains(h.m.notice.text, "created") {
		t.Errorf("unexpected notice %q", h.m.notice.text)
	}
}

func TestAgentForm_EditUpdatesExisting(t *testing.T) {
	h := newHarness(t)
	h.agents.agents = []entity.Agent{{ID: 7, Name: "Writer", Model: "gpt-4o", SystemPrompt: "w"}}
	h.start()
	h.press("2", "e")

	v := h.m.agents
	if v.form.name.Value() != "Writer" {
		t.Fatalf("editor should be filled, got %q", v.form.name.Value())
	}
	v.form.focus = agentFieldModel
	h.press("right")
	h.press("ctrl+s")

	if len(h.agents.saveIDs) != 1 || h.agents.saveIDs[0] != 7 {
		t.Fatalf("expected update of agent 7, got %v", h.agents.saveIDs)
	}
	if h.agents.saves[0].Model != "claude-3-5-sonnet" {
		t.Errorf("model should have cycled, got %q", h.agents.saves[0].Model)
	}
}

func TestAgentForm_EditKeepsUnlistedModel(t *testing.T) {
	h := newHarness(t)
	h.agents.agents = []entity.Agent{{ID: 9, Name: "Legacy", Model: "gpt-4", SystemPrompt: "old"}}
	h.start()
	h.press("2", "e")

	if !strings.Contains(h.m.View(), "gpt-4") {
		t.Error("editor should show the stored model")
	}
	h.m.agents.form.name.SetValue("Renamed")
	h.press("ctrl+s")

	if len(h.agents.saves) != 1 || h.agents.saveIDs[0] != 9 {
		t.Fatalf("expected one update of agent 9, got %v", h.agents.saveIDs)
	}
	if got := h.agents.saves[0]; got.Model != "gpt-4" || got.Name != "Renamed" {
		t.Errorf("unexpected input %+v", got)
	}
}

func TestAgentForm_EditKeepsLongName(t *testing.T) {
	long := strings.Repeat("n", 300)
	h := newHarness(t)
	h.agents.agents = []entity.Agent{{ID: 3, Name: long, Model: "gpt-4o", SystemPrompt: "p"}}
	h.start()
	h.press("2", "e", "ctrl+s")

	if len(h.agents.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(h.agents.saves))
	}
	if h.agents.saves[0].Name != long {
		t.Errorf("name was altered: got %d chars", len(h.agents.saves[0].Name))
	}
}

func TestAgentForm_BlankFieldsSendNothing(t *testing.T) {
	h := newHarness(t).start()
	h.press("2", "n")
	h.m.agents.form.name.SetValue("Researcher")
	h.press("ctrl+s")

	if len(h.agents.saves) != 0 {
		t.Fatal("blank system prompt must not reach the backend")
	}
	if !h.m.notice.isErr || h.m.notice.text != "System prompt is required" {
		t.Errorf("unexpected notice %+v", h.m.notice)
	}
	if h.m.agents.mode != modeForm {
		t.Error("editor should stay open")
	}
}

func TestAgentsView_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.agents.agents = []entity.Agent{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	h.start()
	h.press("2")

	h.press("d", "n")
	if len(h.agents.deletes) != 0 {
		t.Fatal("declined confirmation must not delete")
	}

	lists := h.agents.lists
	h.press("j", "d", "y")
	if len(h.agents.deletes) != 1 || h.agents.deletes[0] != 2 {
		t.Fatalf("expected delete of agent 2, got %v", h.agents.deletes)
	}
	if len(h.m.agents.agents) != 1 || h.m.agents.agents[0].ID != 1 {
		t.Errorf("deleted row should be removed locally: %+v", h.m.agents.agents)
	}
	if h.agents.lists != lists {
		t.Error("delete should not re-fetch")
	}
}

func TestWorkflowsView_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.workflows.workflows = []entity.Workflow{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
	h.start()
	h.press("3")

	h.press("d", "n")
	if len(h.workflows.deletes) != 0 {
		t.Fatal("declined confirmation must not delete")
	}
	if h.m.workflows.mode != modeList || len(h.m.workflows.workflows) != 2 {
		t.Fatal("declining should return to the unchanged list")
	}

	lists := h.workflows.lists
	h.press("j", "d", "y")
	if len(h.workflows.deletes) != 1 || h.workflows.deletes[0] != 2 {
		t.Fatalf("expected delete of workflow 2, got %v", h.workflows.deletes)
	}
	if len(h.m.workflows.workflows) != 1 || h.m.workflows.workflows[0].ID != 1 {
		t.Errorf("deleted row should be removed locally: %+v", h.m.workflows.workflows)
	}
	if h.workflows.lists != lists {
		t.Error("delete should not re-fetch")
	}
}

func TestWorkflowForm_InvalidTasksSendNothing(t *testing.T) {
	h := newHarness(t).start()
	h.press("3", "n", "ctrl+t")

	f := &h.m.workflows.form
	if !f.rawMode {
		t.Fatal("ctrl+t should switch to raw mode")
	}
	f.name.SetValue("Pipeline")
	f.raw.SetValue(`{"step": 1}`)
	h.press("ctrl+s")

	if len(h.workflows.creates) != 0 {
		t.Fatal("invalid tasks must not reach the backend")
	}
	if !strings.HasPrefix(h.m.notice.text, "Invalid JSON for tasks") {
		t.Errorf("unexpected notice %q", h.m.notice.text)
	}
}

func TestWorkflowForm_RowEditor(t *testing.T) {
	h := newHarness(t).start()
	h.press("3", "n")

	f := &h.m.workflows.form
	f.name.SetValue("Pipeline")
	f.setFocus(wfFieldAgent)
	f.agentID.SetValue("1")
	f.instruction.SetValue("research")
	f.setFocus(wfFieldInstruction)
	h.press("enter")
	f.agentID.SetValue("2")
	f.instruction.SetValue("write")
	f.setFocus(wfFieldInstruction)
	h.press("enter")

	if len(f.tasks) != 2 || f.tasks[1].Step != 2 {
		t.Fatalf("expected two numbered rows, got %+v", f.tasks)
	}

	f.setFocus(wfFieldTasks)
	h.press("K")
	if f.tasks[0].Instruction != "write" || f.tasks[0].Step != 1 {
		t.Errorf("row should move up and renumber: %+v", f.tasks)
	}

	f.setFocus(wfFieldInstruction)
	f.agentID.SetValue("")
	h.press("enter")
	if f.draftErr == "" || len(f.tasks) != 2 {
		t.Error("draft without agent id should be rejected inline")
	}

	h.press("ctrl+s")
	if len(h.workflows.creates) != 1 {
		t.Fatalf("expected one create, got %d", len(h.workflows.creates))
	}
	if got := h.workflows.creates[0].Tasks; len(got) != 2 || got[0].AgentID != 2 {
		t.Errorf("unexpected submitted tasks %+v", got)
	}
}

func TestWorkflowsView_RunDisablesOnlyThatWorkflow(t *testing.T) {
	h := newHarness(t)
	h.workflows.workflows = []entity.Workflow{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
	h.workflows.gate = make(chan struct{})
	defer close(h.workflows.gate)
	h.start()
	h.press("3")

	v := h.m.workflows
	_, cmd := h.m.Update(keyMsg("r"))
	if cmd == nil || !v.isRunning(1) {
		t.Fatal("run should start and mark workflow 1")
	}
	if _, cmd := h.m.Update(keyMsg("r")); cmd != nil {
		t.Error("second run of the same workflow should be ignored")
	}
	if v.isRunning(2) {
		t.Error("workflow 2 should not be affected")
	}

	h.m.Update(keyMsg("j"))
	if _, cmd := h.m.Update(keyMsg("r")); cmd == nil || !v.isRunning(2) {
		t.Error("workflow 2 should still be runnable")
	}
	if !strings.Contains(h.m.View(), "Running") {
		t.Error("running workflows should show a spinner")
	}
}

func TestWorkflowsView_RunResultModal(t *testing.T) {
	h := newHarness(t)
	h.workflows.workflows = []entity.Workflow{{ID: 4, Name: "report"}}
	h.workflows.result = &entity.RunResult{
		Status:  entity.RunStatusSuccess,
		Results: entity.RunOutputs{"Writer": "final draft", "Analyst": "numbers"},
		Messages: []entity.RunMessage{
			{Name: "Analyst", Content: "first"},
			{Role: "user", Content: "second"},
			{Name: "Writer", Content: "third"},
		},
	}
	h.start()
	h.press("3", "r")

	v := h.m.workflows
	if v.isRunning(4) {
		t.Error("run control should be enabled again")
	}
	if v.modal == nil {
		t.Fatal("successful run should open the result modal")
	}
	if len(v.modal.entries) != 2 {
		t.Errorf("expected one entry per result key, got %d", len(v.modal.entries))
	}
	md := v.modal.markdown
	first, second, third := strings.Index(md, "first"), strings.Index(md, "second"), strings.Index(md, "third")
	if first < 0 || !(first < second && second < third) {
		t.Errorf("messages out of order:\n%s", md)
	}
	if strings.Index(md, "### Analyst") > strings.Index(md, "### Writer") {
		t.Error("results should be ordered by agent")
	}

	h.press("esc")
	if v.modal != nil {
		t.Error("esc should close the modal")
	}
}

func TestWorkflowsView_RunFailureIsBlockingAlert(t *testing.T) {
	h := newHarness(t)
	h.workflows.workflows = []entity.Workflow{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
	h.workflows.runErr = apperrors.FromStatus(500, "agent 3 not found")
	h.start()
	h.press("3", "r")

	if h.m.alert == nil {
		t.Fatal("failed run should raise an alert")
	}
	if h.m.alert.text != "agent 3 not found" {
		t.Errorf("unexpected alert text %q", h.m.alert.text)
	}
	if h.m.workflows.isRunning(1) {
		t.Error("failed run should release the control")
	}

	h.press("j", "2")
	if h.m.workflows.cursor != 0 || h.m.active != tabWorkflows {
		t.Error("alert should block other input")
	}
	h.press("enter")
	if h.m.alert != nil {
		t.Error("enter should dismiss the alert")
	}
}

func TestNotice_TimerCancelledOnViewChange(t *testing.T) {
	h := newHarness(t).start()

	h.m.Update(showNoticeMsg{text: "first"})
	oldID := h.m.notice.id
	h.m.Update(showNoticeMsg{text: "second"})
	h.m.Update(noticeExpiredMsg{id: oldID})
	if h.m.notice.text != "second" {
		t.Error("an older timer must not dismiss a newer notice")
	}
	h.m.Update(noticeExpiredMsg{id: h.m.notice.id})
	if h.m.notice.visible() {
		t.Error("notice should expire")
	}

	h.m.Update(showNoticeMsg{text: "third"})
	id := h.m.notice.id
	h.press("2")
	if h.m.notice.visible() {
		t.Error("leaving the view should clear the notice")
	}
	h.m.Update(showNoticeMsg{text: "fourth"})
	h.m.Update(noticeExpiredMsg{id: id})
	if h.m.notice.text != "fourth" {
		t.Error("timer of a left view must not act")
	}
}

func TestViewChange_CancelsRequestsAndDropsStaleResponses(t *testing.T) {
	h := newHarness(t)
	h.workflows.workflows = []entity.Workflow{{ID: 1, Name: "one"}}
	h.workflows.gate = make(chan struct{})
	h.start()
	h.press("3")

	_, cmd := h.m.Update(keyMsg("r"))
	ctx := h.m.ctx
	gen := h.m.gen
	h.press("1")
	if ctx.Err() == nil {
		t.Error("leaving the view should cancel its context")
	}
	msgs := collect(cmd)
	if len(msgs) == 0 {
		t.Fatal("cancelled run should return promptly")
	}

	h.m.Update(dashboardLoadedMsg{gen: gen, summary: &usecase.Dashboard{AgentCount: 42}})
	if h.m.dashboard.summary == nil || h.m.dashboard.summary.AgentCount != 2 {
		t.Error("stale response should be dropped")
	}
	close(h.workflows.gate)
}

func TestSettings_SaveShowsNotice(t *testing.T) {
	h := newHarness(t).start()
	h.press("4")

	v := h.m.settings
	h.press("right")
	if v.prefs.Theme != entity.ThemeLight {
		t.Fatal("theme should toggle")
	}
	v.apiKey.SetValue("sk-test-1234")
	h.press("ctrl+s")

	if h.settings.saves != 1 || h.settings.prefs.APIKey != "sk-test-1234" {
		t.Errorf("unexpected saved prefs %+v", h.settings.prefs)
	}
	if h.m.notice.text != usecase.MsgSettingsSaved {
		t.Errorf("unexpected notice %q", h.m.notice.text)
	}
	if h.m.workflows.theme != entity.ThemeLight {
		t.Error("saved theme should reach the result renderer")
	}
}

func TestDashboard_ShowsStats(t *testing.T) {
	h := newHarness(t).start()
	out := h.m.View()
	for _, want := range []string{"Active Agents", "75%", "No activity yet."} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}
}

func TestRunMarkdown_NestsOutputAndMessages(t *testing.T) {
	md := runMarkdown(
		[]entity.RunEntry{{Agent: "Writer", Output: "## Draft\nline two"}},
		[]entity.RunMessage{{Name: "Writer", Content: "para one\n\npara two"}},
	)

	for _, want := range []string{
		"> ## Draft\n> line two",
		"**1. Writer**\n\n> para one\n>\n> para two",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown should contain %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "\n## Draft") {
		t.Errorf("output heading escaped its entry:\n%s", md)
	}
}
