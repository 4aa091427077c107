package tui

import "github.com/charmbracelet/lipgloss"

// brand colors
var (
	colorCyan    = lipgloss.Color("#00D7FF")
	colorDimCyan = lipgloss.Color("#00AFAF")
	colorGray    = lipgloss.Color("#6C6C6C")
	colorWhite   = lipgloss.Color("#FFFFFF")
	colorDim     = lipgloss.Color("#4E4E4E")
	colorGreen   = lipgloss.Color("#00FF87")
	colorYellow  = lipgloss.Color("#FFD75F")
	colorRed     = lipgloss.Color("#FF5F5F")
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorGray)
	faintStyle = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle = lipgloss.NewStyle().Foreground(colorWhite)
	labelStyle = lipgloss.NewStyle().Foreground(colorDimCyan)

	tabStyle       = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 2)
	activeTabStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Padding(0, 2).Underline(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	selectedCardStyle = cardStyle.BorderForeground(colorCyan)

	badgeReady   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	badgeRunning = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	badgeStatus  = lipgloss.NewStyle().Foreground(colorDimCyan)

	noticeSuccessStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	noticeErrorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorCyan).
			Padding(1, 2)
	alertStyle = modalStyle.BorderForeground(colorRed)

	focusedFieldStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	errorTextStyle    = lipgloss.NewStyle().Foreground(colorRed)
	warnTextStyle     = lipgloss.NewStyle().Foreground(colorYellow)
	helpStyle         = lipgloss.NewStyle().Foreground(colorDim).MarginTop(1)
)
