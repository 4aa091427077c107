package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
)

// Every response message carries the generation of the view that issued
// the request. Responses for a generation that is no longer current are
// dropped.

type dashboardLoadedMsg struct {
	gen     int
	summary *usecase.Dashboard
	err     error
}

type agentsLoadedMsg struct {
	gen    int
	agents []entity.Agent
	err    error
}

type agentSavedMsg struct {
	gen     int
	created bool
	agent   entity.Agent
	err     error
}

type agentDeletedMsg struct {
	gen int
	id  int64
	err error
}

type workflowsLoadedMsg struct {
	gen       int
	workflows []entity.Workflow
	err       error
}

type workflowCreatedMsg struct {
	gen      int
	workflow entity.Workflow
	err      error
}

type workflowDeletedMsg struct {
	gen int
	id  int64
	err error
}

type runFinishedMsg struct {
	gen    int
	id     int64
	name   string
	result *entity.RunResult
	err    error
}

type settingsLoadedMsg struct {
	gen   int
	prefs entity.Preferences
	err   error
}

type settingsSavedMsg struct {
	gen   int
	prefs entity.Preferences
	err   error
}

// showNoticeMsg asks the shell to display a transient notice.
type showNoticeMsg struct {
	text  string
	isErr bool
}

// noticeExpiredMsg fires when notice id's timer elapses.
type noticeExpiredMsg struct {
	id int
}

// showAlertMsg asks the shell to display a blocking alert.
type showAlertMsg struct {
	title string
	text  string
}

func notify(text string) tea.Cmd {
	return func() tea.Msg { return showNoticeMsg{text: text} }
}

func notifyError(text string) tea.Cmd {
	return func() tea.Msg { return showNoticeMsg{text: text, isErr: true} }
}

func alert(title, text string) tea.Cmd {
	return func() tea.Msg { return showAlertMsg{title: title, text: text} }
}

func (m dashboardLoadedMsg) generation() int { return m.gen }
func (m agentsLoadedMsg) generation() int    { return m.gen }
func (m agentSavedMsg) generation() int      { return m.gen }
func (m agentDeletedMsg) generation() int    { return m.gen }
func (m workflowsLoadedMsg) generation() int { return m.gen }
func (m workflowCreatedMsg) generation() int { return m.gen }
func (m workflowDeletedMsg) generation() int { return m.gen }
func (m runFinishedMsg) generation() int     { return m.gen }
func (m settingsLoadedMsg) generation() int  { return m.gen }
func (m settingsSavedMsg) generation() int   { return m.gen }

type generational interface {
	generation() int
}
