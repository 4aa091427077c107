// Package tui is the terminal front end of the console.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
)

type tab int

const (
	tabDashboard tab = iota
	tabAgents
	tabWorkflows
	tabSettings
	tabCount
)

var tabNames = [tabCount]string{"Dashboard", "Agents", "Workflows", "Settings"}

// view is one navigable screen. init is called every time the screen
// becomes active, with a fresh context that is cancelled when it is left.
type view interface {
	init(ctx context.Context, gen int) tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view(width, height int) string
	// capturesKeys reports whether a text field has focus, in which case
	// the shell's navigation keys go to the view.
	capturesKeys() bool
}

// Option configures the shell.
type Option func(*Model)

// WithTheme selects the markdown style for run results.
func WithTheme(theme string) Option {
	return func(m *Model) { m.theme = theme }
}

// WithVersion sets the version shown in the header.
func WithVersion(v string) Option {
	return func(m *Model) { m.version = v }
}

// Model is the root bubbletea model: a tab bar over four views, a notice
// line and a blocking alert.
type Model struct {
	svc    Services
	logger *zap.Logger

	dashboard *dashboardView
	agents    *agentsView
	workflows *workflowsView
	settings  *settingsView

	active tab
	ctx    context.Context
	cancel context.CancelFunc
	gen    int

	notice notice
	alert  *showAlertMsg

	theme   string
	version string
	width   int
	height  int
}

// New creates the shell.
func New(svc Services, logger *zap.Logger, opts ...Option) *Model {
	m := &Model{
		svc:    svc,
		logger: logger.With(zap.String("component", "tui")),
		theme:  entity.ThemeDark,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.dashboard = newDashboardView(svc.Dashboard)
	m.agents = newAgentsView(svc.Agents)
	m.workflows = newWorkflowsView(svc.Workflows, m.theme)
	m.settings = newSettingsView(svc.Settings)
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.shutdown()
	return err
}

func (m *Model) current() view {
	switch m.active {
	case tabAgents:
		return m.agents
	case tabWorkflows:
		return m.workflows
	case tabSettings:
		return m.settings
	default:
		return m.dashboard
	}
}

// Init opens the dashboard.
func (m *Model) Init() tea.Cmd {
	return m.switchTo(tabDashboard)
}

// switchTo leaves the current view, cancelling its requests and its notice
// timer, and enters t.
func (m *Model) switchTo(t tab) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	m.notice.cancel()
	m.gen++
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.active = t
	m.logger.Debug("View entered", zap.String("view", tabNames[t]), zap.Int("gen", m.gen))
	return m.current().init(m.ctx, m.gen)
}

func (m *Model) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Update routes messages to the shell or the active view.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if g, ok := msg.(generational); ok && g.generation() != m.gen {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, m.current().update(msg)

	case showNoticeMsg:
		return m, m.notice.show(msg.text, msg.isErr, m.svc.noticeTTL())

	case noticeExpiredMsg:
		m.notice.expire(msg.id)
		return m, nil

	case showAlertMsg:
		m.alert = &msg
		m.logger.Warn("Alert shown", zap.String("title", msg.title), zap.String("text", msg.text))
		return m, nil

	case settingsSavedMsg:
		if msg.err == nil {
			m.theme = msg.prefs.Theme
			m.workflows.setTheme(msg.prefs.Theme)
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.shutdown()
			return m, tea.Quit
		}
		if m.alert != nil {
			switch msg.String() {
			case "enter", "esc", " ":
				m.alert = nil
			}
			return m, nil
		}
		if !m.current().capturesKeys() {
			if cmd, handled := m.navigate(msg); handled {
				return m, cmd
			}
		}
	}

	return m, m.current().update(msg)
}

func (m *Model) navigate(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		m.shutdown()
		return tea.Quit, true
	case "tab":
		return m.switchTo((m.active + 1) % tabCount), true
	case "shift+tab":
		return m.switchTo((m.active + tabCount - 1) % tabCount), true
	case "1", "2", "3", "4":
		return m.switchTo(tab(msg.String()[0] - '1')), true
	}
	return nil, false
}

// View renders the header, the active view and the notice line.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.alert != nil {
		b.WriteString(m.alertView())
	} else {
		b.WriteString(m.current().view(m.width, m.height))
	}

	b.WriteString("\n")
	if m.notice.visible() {
		b.WriteString("\n" + m.notice.view())
	}
	b.WriteString(helpStyle.Render("tab/1-4 switch view • ctrl+c quit"))
	return b.String()
}

func (m *Model) header() string {
	title := titleStyle.Render("AgentOps Console")
	if m.version != "" {
		title += " " + faintStyle.Render("v"+m.version)
	}
	tabs := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m *Model) alertView() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		noticeErrorStyle.Render(m.alert.title),
		"",
		valueStyle.Render(m.alert.text),
		"",
		faintStyle.Render("press enter to dismiss"),
	)
	box := alertStyle.Render(body)
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return box
}
