package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// notice is the transient message line. Each show bumps id, so a timer
// started for an older notice expires nothing.
type notice struct {
	id    int
	text  string
	isErr bool
}

func (n *notice) show(text string, isErr bool, ttl time.Duration) tea.Cmd {
	n.id++
	n.text = text
	n.isErr = isErr
	id := n.id
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (n *notice) expire(id int) {
	if id == n.id {
		n.text = ""
	}
}

// cancel clears the notice and orphans its pending timer.
func (n *notice) cancel() {
	n.id++
	n.text = ""
}

func (n notice) visible() bool {
	return n.text != ""
}

func (n notice) view() string {
	if n.text == "" {
		return ""
	}
	if n.isErr {
		return noticeErrorStyle.Render("✗ " + n.text)
	}
	return noticeSuccessStyle.Render("✓ " + n.text)
}
