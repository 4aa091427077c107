package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// brand colors
var (
	colorViolet = lipgloss.Color("#7D56F4")
	colorGray   = lipgloss.Color("#6C6C6C")
	colorWhite  = lipgloss.Color("#FFFFFF")
	colorDim    = lipgloss.Color("#4E4E4E")
	colorGreen  = lipgloss.Color("#04B575")
	colorYellow = lipgloss.Color("#FFD75F")
	colorRed    = lipgloss.Color("#FF5F5F")
)

var logoLines = []string{
	"  █████   ██████  ███████ ███    ██ ████████  ██████  ██████  ███████",
	" ██   ██ ██       ██      ████   ██    ██    ██    ██ ██   ██ ██     ",
	" ███████ ██   ███ █████   ██ ██  ██    ██    ██    ██ ██████  ███████",
	" ██   ██ ██    ██ ██      ██  ██ ██    ██    ██    ██ ██           ██",
	" ██   ██  ██████  ███████ ██   ████    ██     ██████  ██      ███████",
}

// Gradient colors top to bottom, violet to cyan.
var logoGradient = []lipgloss.Color{
	lipgloss.Color("#7D56F4"),
	lipgloss.Color("#6A6AF6"),
	lipgloss.Color("#577EF8"),
	lipgloss.Color("#4492FA"),
	lipgloss.Color("#31A6FC"),
}

// BannerInfo carries what the banner reports about this install.
type BannerInfo struct {
	Version    string
	Backend    string
	ConfigFile string
	Database   string
}

// RenderBanner returns the logo and install summary.
func RenderBanner(info BannerInfo, width int) string {
	labelStyle := lipgloss.NewStyle().Foreground(colorGray)
	valueStyle := lipgloss.NewStyle().Foreground(colorWhite)
	versionStyle := lipgloss.NewStyle().Foreground(colorViolet)

	var logo strings.Builder
	if width >= 70 {
		for i, line := range logoLines {
			c := logoGradient[i%len(logoGradient)]
			logo.WriteString(lipgloss.NewStyle().Foreground(c).Bold(true).Render(line))
			logo.WriteString("\n")
		}
	} else {
		logo.WriteString(lipgloss.NewStyle().Foreground(colorViolet).Bold(true).Render(" ◇  A G E N T O P S"))
		logo.WriteString("\n")
	}

	configFile := info.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	line := func(label, value string) string {
		return fmt.Sprintf("  %s %s", labelStyle.Render(fmt.Sprintf("%-8s", label)), valueStyle.Render(value))
	}

	return fmt.Sprintf("\n%s%s\n\n%s\n%s\n%s\n%s\n",
		logo.String(),
		versionStyle.Render("  v"+info.Version),
		line("Backend", info.Backend),
		line("Config", configFile),
		line("Store", info.Database),
		line("Env", runtime.GOOS+"/"+runtime.GOARCH),
	)
}
