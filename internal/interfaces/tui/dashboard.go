package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"

	"github.com/agentops/console/internal/application/usecase"
	apperrors "github.com/agentops/console/pkg/errors"
)

const msgLoadDashboardFailed = "Failed to load dashboard"

type dashboardView struct {
	svc DashboardService
	ctx context.Context
	gen int

	loading bool
	summary *usecase.Dashboard
	now     func() time.Time
}

func newDashboardView(svc DashboardService) *dashboardView {
	return &dashboardView{svc: svc, now: time.Now}
}

func (v *dashboardView) init(ctx context.Context, gen int) tea.Cmd {
	v.ctx, v.gen = ctx, gen
	return v.fetch()
}

func (v *dashboardView) fetch() tea.Cmd {
	v.loading = true
	ctx, gen, svc := v.ctx, v.gen, v.svc
	return func() tea.Msg {
		summary, err := svc.Summary(ctx)
		return dashboardLoadedMsg{gen: gen, summary: summary, err: err}
	}
}

func (v *dashboardView) capturesKeys() bool { return false }

func (v *dashboardView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		v.loading = false
		if msg.err != nil {
			return notifyError(apperrors.Detail(msg.err, msgLoadDashboardFailed))
		}
		v.summary = msg.summary
	case tea.KeyMsg:
		if msg.String() == "ctrl+r" {
			return v.fetch()
		}
	}
	return nil
}

func (v *dashboardView) view(width, _ int) string {
	if v.summary == nil {
		if v.loading {
			return dimStyle.Render("Loading dashboard…")
		}
		return dimStyle.Render("Dashboard unavailable.")
	}
	s := v.summary

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Active Agents", fmt.Sprintf("%d", s.AgentCount)),
		statCard("Workflows", fmt.Sprintf("%d", s.WorkflowCount)),
		statCard("Total Runs", fmt.Sprintf("%d", s.Stats.TotalRuns)),
		statCard("Success Rate", fmt.Sprintf("%.0f%%", s.Stats.SuccessRate())),
	)

	var b strings.Builder
	b.WriteString(cards)
	b.WriteString("\n")
	if s.BackendError != "" {
		b.WriteString(warnTextStyle.Render("Backend: "+s.BackendError) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("Recent Activity") + "\n")
	if len(s.Recent) == 0 {
		b.WriteString(dimStyle.Render("No activity yet.") + "\n")
	}
	now := v.now()
	for _, a := range s.Recent {
		mark := badgeReady.Render("●")
		if a.Failed() {
			mark = noticeErrorStyle.Render("●")
		}
		line := fmt.Sprintf("%s %s  %s", mark, valueStyle.Render(a.Title()),
			faintStyle.Render(units.HumanDuration(now.Sub(a.At))+" ago"))
		if a.Failed() && a.Detail != "" {
			line += "\n   " + errorTextStyle.Render(a.Detail)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(helpStyle.Render("ctrl+r refresh"))
	return b.String()
}

func statCard(label, value string) string {
	return cardStyle.Width(18).Render(
		labelStyle.Render(label) + "\n" + titleStyle.Render(value),
	)
}
