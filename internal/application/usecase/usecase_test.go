package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/service"
	"github.com/agentops/console/internal/infrastructure/eventbus"
	"github.com/agentops/console/internal/infrastructure/persistence"
	apperrors "github.com/agentops/console/pkg/errors"
)

func TestAgentUseCase_CreateIssuesOneRequest(t *testing.T) {
	agents := &fakeAgents{}
	uc := usecase.NewAgentUseCase(agents, nil, zap.NewNop())

	saved, err := uc.Save(context.Background(), 0, usecase.AgentInput{
		Name:         "Researcher",
		Model:        "claude-3-5-sonnet",
		SystemPrompt: "Find sources.",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(agents.creates) != 1 || len(agents.updates) != 0 {
		t.Fatalf("expected exactly one create, got %d creates %d updates", len(agents.creates), len(agents.updates))
	}
	got := agents.creates[0]
	if got.Name != "Researcher" || got.Model != "claude-3-5-sonnet" || got.SystemPrompt != "Find sources." {
		t.Errorf("unexpected create payload %+v", got)
	}
	if saved.ID != 1 {
		t.Errorf("expected backend id, got %d", saved.ID)
	}
}

func TestAgentUseCase_UpdateWhenIDSet(t *testing.T) {
	agents := &fakeAgents{}
	uc := usecase.NewAgentUseCase(agents, nil, zap.NewNop())

	if _, err := uc.Save(context.Background(), 5, usecase.AgentInput{Name: "A", SystemPrompt: "p"}); err != nil {
		t.Fatal(err)
	}
	if len(agents.updates) != 1 || agents.updates[0].ID != 5 || len(agents.creates) != 0 {
		t.Errorf("expected one update of id 5, got %+v / %+v", agents.updates, agents.creates)
	}
}

func TestAgentUseCase_UpdateKeepsUnlistedModel(t *testing.T) {
	agents := &fakeAgents{items: []entity.Agent{{ID: 7, Name: "legacy", Model: "gpt-4", SystemPrompt: "p"}}}
	uc := usecase.NewAgentUseCase(agents, nil, zap.NewNop())

	saved, err := uc.Save(context.Background(), 7, usecase.AgentInput{Name: "renamed", Model: "gpt-4", SystemPrompt: "p"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(agents.updates) != 1 || agents.updates[0].Model != "gpt-4" || agents.updates[0].Name != "renamed" {
		t.Fatalf("expected one update keeping gpt-4, got %+v", agents.updates)
	}
	if saved.Model != "gpt-4" {
		t.Errorf("saved model = %q", saved.Model)
	}

	// New agents are still held to the selectable set.
	if _, err := uc.Save(context.Background(), 0, usecase.AgentInput{Name: "n", Model: "gpt-4", SystemPrompt: "p"}); !apperrors.IsInvalidInput(err) {
		t.Errorf("create with unlisted model: expected invalid input, got %v", err)
	}
	if len(agents.creates) != 0 {
		t.Errorf("no create expected, got %d", len(agents.creates))
	}
}

func TestAgentUseCase_InvalidInputSendsNothing(t *testing.T) {
	agents := &fakeAgents{}
	uc := usecase.NewAgentUseCase(agents, nil, zap.NewNop())

	for _, in := range []usecase.AgentInput{
		{Name: "", SystemPrompt: "p"},
		{Name: "n", SystemPrompt: " "},
		{Name: "n", Model: "gpt-9", SystemPrompt: "p"},
	} {
		_, err := uc.Save(context.Background(), 0, in)
		if !apperrors.IsInvalidInput(err) {
			t.Errorf("%+v: expected invalid input, got %v", in, err)
		}
	}
	if len(agents.creates) != 0 {
		t.Errorf("no request should be issued, got %d", len(agents.creates))
	}
}

func TestAgentUseCase_BackendErrorPassesThrough(t *testing.T) {
	agents := &fakeAgents{err: apperrors.FromStatus(400, "Agent name already exists")}
	uc := usecase.NewAgentUseCase(agents, nil, zap.NewNop())

	_, err := uc.Save(context.Background(), 0, usecase.AgentInput{Name: "dup", SystemPrompt: "p"})
	if got := apperrors.Detail(err, usecase.MsgSaveAgentFailed); got != "Agent name already exists" {
		t.Errorf("expected server detail, got %q", got)
	}
}

func TestWorkflowUseCase_InvalidTasksSendNothing(t *testing.T) {
	workflows := &fakeWorkflows{}
	uc := usecase.NewWorkflowUseCase(workflows, nil, nil, zap.NewNop())

	for _, text := range []string{
		`not json`,
		`{"step":1}`,
		`[{"step":1,"agent_id":0,"instruction":"x"}]`,
	} {
		_, err := uc.Create(context.Background(), usecase.WorkflowInput{Name: "w", TasksText: text})
		if !apperrors.IsInvalidInput(err) {
			t.Errorf("%s: expected invalid input, got %v", text, err)
		}
	}
	if _, err := uc.Create(context.Background(), usecase.WorkflowInput{Name: " "}); !apperrors.IsInvalidInput(err) {
		t.Errorf("blank name: expected invalid input, got %v", err)
	}
	if workflows.createCount() != 0 {
		t.Errorf("no request should be issued, got %d", workflows.createCount())
	}
}

func TestWorkflowUseCase_CreateParsesText(t *testing.T) {
	workflows := &fakeWorkflows{}
	uc := usecase.NewWorkflowUseCase(workflows, nil, nil, zap.NewNop())

	created, err := uc.Create(context.Background(), usecase.WorkflowInput{
		Name:      "Research pipeline",
		TasksText: `[{"step":2,"agent_id":2,"instruction":"write"},{"step":1,"agent_id":1,"instruction":"research"}]`,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != entity.WorkflowStatusActive {
		t.Errorf("expected active status, got %q", created.Status)
	}
	if len(created.Tasks) != 2 || created.Tasks[0].Instruction != "research" {
		t.Errorf("tasks should be parsed and ordered: %+v", created.Tasks)
	}
}

func TestWorkflowUseCase_RunGuardPerWorkflow(t *testing.T) {
	workflows := &fakeWorkflows{gate: make(chan struct{}), started: make(chan int64, 4)}
	uc := usecase.NewWorkflowUseCase(workflows, service.NewRunGuard(), nil, zap.NewNop())

	errs := make(chan error, 2)
	go func() {
		_, err := uc.Run(context.Background(), 1, "one")
		errs <- err
	}()
	<-workflows.started

	if !uc.Running(1) {
		t.Fatal("workflow 1 should be running")
	}
	if _, err := uc.Run(context.Background(), 1, "one"); !apperrors.IsConflict(err) {
		t.Errorf("second run of the same workflow should conflict, got %v", err)
	}

	go func() {
		_, err := uc.Run(context.Background(), 2, "two")
		errs <- err
	}()
	select {
	case id := <-workflows.started:
		if id != 2 {
			t.Errorf("expected workflow 2 to start, got %d", id)
		}
	case <-time.After(time.Second):
		t.Fatal("another workflow must not be blocked")
	}

	close(workflows.gate)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Errorf("run failed: %v", err)
		}
	}
	if uc.Running(1) || uc.Running(2) {
		t.Error("runs should be released after settling")
	}
}

func TestWorkflowUseCase_RunFailureReleases(t *testing.T) {
	workflows := &fakeWorkflows{err: apperrors.FromStatus(500, "Agent 3 not found")}
	uc := usecase.NewWorkflowUseCase(workflows, nil, nil, zap.NewNop())

	_, err := uc.Run(context.Background(), 9, "w")
	if apperrors.Detail(err, usecase.MsgRunWorkflowFailed) != "Agent 3 not found" {
		t.Errorf("unexpected error %v", err)
	}
	if uc.Running(9) {
		t.Error("failed run must release the workflow")
	}
}

func TestWorkflowUseCase_RunNonSuccessStatus(t *testing.T) {
	workflows := &fakeWorkflows{result: &entity.RunResult{Status: "error"}}
	uc := usecase.NewWorkflowUseCase(workflows, nil, nil, zap.NewNop())

	if _, err := uc.Run(context.Background(), 1, "w"); err == nil {
		t.Error("non-success status should be an error")
	}
}

func TestSettingsUseCase_Save(t *testing.T) {
	repo := persistence.NewMemoryPreferencesRepository()
	sink := &fakeSink{}
	uc := usecase.NewSettingsUseCase(repo, sink, nil, zap.NewNop())

	prefs, err := uc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	prefs.Theme = " Light "
	prefs.APIKey = " sk-123 "
	saved, err := uc.Save(context.Background(), prefs)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Theme != entity.ThemeLight || saved.APIKey != "sk-123" {
		t.Errorf("unexpected saved prefs %+v", saved)
	}
	if sink.key != "sk-123" {
		t.Errorf("API key should reach the backend client, got %q", sink.key)
	}

	prefs.Theme = "neon"
	if _, err := uc.Save(context.Background(), prefs); !apperrors.IsInvalidInput(err) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestDashboardAndRecorder(t *testing.T) {
	logger := zap.NewNop()
	bus := eventbus.NewInMemoryBus(logger, 100)
	activity := persistence.NewMemoryActivityRepository()
	usecase.NewActivityRecorder(activity, logger).Attach(bus)

	agents := &fakeAgents{}
	workflows := &fakeWorkflows{}
	agentUC := usecase.NewAgentUseCase(agents, bus, logger)
	workflowUC := usecase.NewWorkflowUseCase(workflows, nil, bus, logger)

	ctx := context.Background()
	if _, err := agentUC.Save(ctx, 0, usecase.AgentInput{Name: "A", SystemPrompt: "p"}); err != nil {
		t.Fatal(err)
	}
	if _, err := workflowUC.Create(ctx, usecase.WorkflowInput{Name: "W"}); err != nil {
		t.Fatal(err)
	}
	if _, err := workflowUC.Run(ctx, 1, "W"); err != nil {
		t.Fatal(err)
	}
	workflows.err = errors.New("boom")
	_, _ = workflowUC.Run(ctx, 1, "W")
	workflows.err = nil

	bus.Close()

	dash, err := usecase.NewDashboardUseCase(agents, workflows, activity, logger).Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if dash.AgentCount != 1 || dash.WorkflowCount != 1 {
		t.Errorf("unexpected counts %+v", dash)
	}
	if dash.Stats.TotalRuns != 2 || dash.Stats.SuccessRate() != 50 {
		t.Errorf("unexpected stats %+v", dash.Stats)
	}
	if len(dash.Recent) != 4 {
		t.Errorf("expected 4 recent entries, got %d", len(dash.Recent))
	}
}

func TestDashboard_BackendDown(t *testing.T) {
	agents := &fakeAgents{err: apperrors.NewUnavailableError("backend unreachable at http://localhost:8000", nil)}
	dash, err := usecase.NewDashboardUseCase(agents, &fakeWorkflows{}, persistence.NewMemoryActivityRepository(), zap.NewNop()).
		Summary(context.Background())
	if err != nil {
		t.Fatalf("backend failures should not fail the dashboard: %v", err)
	}
	if dash.BackendError == "" {
		t.Error("expected backend error to be reported")
	}
}
