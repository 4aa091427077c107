package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/agentops/console/internal/domain/entity"
)

// Format is an output format for list and show commands.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Renderer writes command results in the selected format.
type Renderer struct {
	out     io.Writer
	format  Format
	width   int
	glamour *glamour.TermRenderer
}

// NewRenderer creates a renderer for a terminal of the given width.
func NewRenderer(out io.Writer, format Format, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	return &Renderer{out: out, format: format, width: width, glamour: r}
}

// RenderMarkdown renders markdown for the terminal, falling back to the
// source text.
func (r *Renderer) RenderMarkdown(md string) string {
	if r.glamour == nil {
		return md
	}
	out, err := r.glamour.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// Agents writes the agent list.
func (r *Renderer) Agents(agents []entity.Agent) error {
	if r.format != FormatTable {
		return r.encode(agents)
	}
	if len(agents) == 0 {
		return r.line(dimText("No agents found. Create one to get started."))
	}
	rows := make([][]string, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, []string{strconv.FormatInt(a.ID, 10), a.Name, a.Model.Label(), truncate(a.SystemPrompt, 40)})
	}
	return r.table([]string{"ID", "NAME", "MODEL", "SYSTEM PROMPT"}, rows)
}

// Agent writes a single agent.
func (r *Renderer) Agent(a entity.Agent) error {
	if r.format != FormatTable {
		return r.encode(a)
	}
	return r.Agents([]entity.Agent{a})
}

// Workflows writes the workflow list.
func (r *Renderer) Workflows(workflows []entity.Workflow) error {
	if r.format != FormatTable {
		return r.encode(workflows)
	}
	if len(workflows) == 0 {
		return r.line(dimText("No workflows created yet."))
	}
	rows := make([][]string, 0, len(workflows))
	for _, w := range workflows {
		rows = append(rows, []string{
			strconv.FormatInt(w.ID, 10),
			w.Name,
			w.Status,
			strconv.Itoa(len(w.Tasks)),
			truncate(w.Description, 40),
		})
	}
	return r.table([]string{"ID", "NAME", "STATUS", "TASKS", "DESCRIPTION"}, rows)
}

// Workflow writes a single workflow with its tasks.
func (r *Renderer) Workflow(w entity.Workflow) error {
	if r.format != FormatTable {
		return r.encode(w)
	}
	if err := r.Workflows([]entity.Workflow{w}); err != nil {
		return err
	}
	if len(w.Tasks) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(w.Tasks))
	for _, t := range w.Tasks {
		rows = append(rows, []string{strconv.Itoa(t.Step), strconv.FormatInt(t.AgentID, 10), truncate(t.Instruction, 60)})
	}
	return r.table([]string{"STEP", "AGENT", "INSTRUCTION"}, rows)
}

// Run writes a run result: one section per agent output, sorted by agent,
// then the message log in order.
func (r *Renderer) Run(name string, result *entity.RunResult, elapsed time.Duration) error {
	if r.format != FormatTable {
		return r.encode(result)
	}
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n## Results\n\n", name)
	for _, e := range result.Entries() {
		fmt.Fprintf(&md, "### %s\n\n%s\n\n", e.Agent, blockQuote(e.Output))
	}
	if len(result.Messages) > 0 {
		md.WriteString("## Messages\n\n")
		for i, m := range result.Messages {
			fmt.Fprintf(&md, "**%d. %s**\n\n%s\n\n", i+1, m.Speaker(), blockQuote(m.Content))
		}
	}
	if err := r.line(r.RenderMarkdown(md.String())); err != nil {
		return err
	}
	return r.line(dimText(fmt.Sprintf("status %s in %s", result.Status, formatDuration(elapsed))))
}

type preferencesView struct {
	Theme         string    `json:"theme" yaml:"theme"`
	Notifications bool      `json:"notifications" yaml:"notifications"`
	APIKey        string    `json:"api_key" yaml:"api_key"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Preferences writes the settings with the API key masked.
func (r *Renderer) Preferences(p entity.Preferences) error {
	view := preferencesView{
		Theme:         p.Theme,
		Notifications: p.Notifications,
		APIKey:        p.MaskedAPIKey(),
		UpdatedAt:     p.UpdatedAt,
	}
	if r.format != FormatTable {
		return r.encode(view)
	}
	key := view.APIKey
	if key == "" {
		key = "(not set)"
	}
	return r.table([]string{"SETTING", "VALUE"}, [][]string{
		{"theme", view.Theme},
		{"notifications", strconv.FormatBool(view.Notifications)},
		{"api key", key},
	})
}

// Success writes a confirmation line.
func (r *Renderer) Success(msg string) error {
	if r.format != FormatTable {
		return nil
	}
	return r.line(lipgloss.NewStyle().Foreground(colorGreen).Render("✓ ") + msg)
}

// Check writes one doctor check line.
func (r *Renderer) Check(name, detail string, ok bool) error {
	icon := lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	if !ok {
		icon = lipgloss.NewStyle().Foreground(colorRed).Render("✗")
	}
	label := lipgloss.NewStyle().Foreground(colorGray).Render(name + ":")
	return r.line(fmt.Sprintf("  %s %s %s", icon, label, detail))
}

// Alert writes a blocking failure box.
func (r *Renderer) Alert(title, detail string) error {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorRed).
		Padding(0, 1).
		Width(min(r.width-4, 72))
	titleStyle := lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	return r.line(box.Render(titleStyle.Render("✗ "+title) + "\n\n" + detail))
}

func (r *Renderer) table(headers []string, rows [][]string) error {
	headerStyle := lipgloss.NewStyle().Foreground(colorViolet).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return r.line(t.String())
}

func (r *Renderer) encode(v any) error {
	switch r.format {
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func (r *Renderer) line(s string) error {
	_, err := fmt.Fprintln(r.out, s)
	return err
}

// blockQuote keeps markdown inside s (headings, lists) nested under its
// entry.
func blockQuote(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("> "+line, " ")
	}
	return strings.Join(lines, "\n")
}

func dimText(s string) string {
	return lipgloss.NewStyle().Foreground(colorGray).Render(s)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
