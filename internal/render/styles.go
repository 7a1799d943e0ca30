package render

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("12")  // bright blue
	colorAccent  = lipgloss.Color("10")  // bright green
	colorDim     = lipgloss.Color("240") // gray
	colorWarn    = lipgloss.Color("11")  // bright yellow

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true)

	styleBar = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleLabel = lipgloss.NewStyle().
			Width(10)

	styleDim = lipgloss.NewStyle().
			Foreground(colorDim)

	styleHighlight = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)
)
