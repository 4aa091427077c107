package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/agentops/console/internal/domain/entity"
)

// runModal presents one run: per-agent results, then the message log in
// the order the backend returned it.
type runModal struct {
	title    string
	entries  []entity.RunEntry
	messages []entity.RunMessage
	markdown string
	viewport viewport.Model
}

func newRunModal(name string, result *entity.RunResult, theme string, width, height int) *runModal {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	m := &runModal{
		title:    fmt.Sprintf("Run result: %s", name),
		entries:  result.Entries(),
		messages: result.Messages,
	}
	m.markdown = runMarkdown(m.entries, m.messages)

	vw, vh := width-8, height-12
	if vw < 20 {
		vw = 20
	}
	if vh < 5 {
		vh = 5
	}
	m.viewport = viewport.New(vw, vh)
	m.viewport.SetContent(renderMarkdown(m.markdown, theme, vw))
	return m
}

func runMarkdown(entries []entity.RunEntry, messages []entity.RunMessage) string {
	var b strings.Builder
	b.WriteString("## Results\n\n")
	if len(entries) == 0 {
		b.WriteString("_No results._\n\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", e.Agent, blockQuote(e.Output))
	}
	b.WriteString("## Messages\n\n")
	if len(messages) == 0 {
		b.WriteString("_No messages._\n")
	}
	for i, msg := range messages {
		fmt.Fprintf(&b, "**%d. %s**\n\n%s\n\n", i+1, msg.Speaker(), blockQuote(msg.Content))
	}
	return b.String()
}

// blockQuote nests s under a quote marker so its own headings and line
// breaks stay inside the entry.
func blockQuote(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("> "+line, " ")
	}
	return strings.Join(lines, "\n")
}

// renderMarkdown falls back to the raw text when glamour fails.
func renderMarkdown(md, theme string, width int) string {
	style := "dark"
	if theme == entity.ThemeLight {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// update returns true when the modal should close.
func (m *runModal) update(msg tea.Msg) (bool, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "enter":
			return true, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return false, cmd
}

func (m *runModal) view() string {
	return modalStyle.Render(
		titleStyle.Render(m.title) + "\n\n" +
			m.viewport.View() + "\n" +
			faintStyle.Render(fmt.Sprintf("%3.f%% • ↑/↓ scroll • esc close", m.viewport.ScrollPercent()*100)),
	)
}
