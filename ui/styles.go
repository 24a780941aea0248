package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	// Prompt and echoed user input
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Streamed assistant text
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)
)

// FormatFooter formats a footer string with alternating keys and descriptions.
// Usage: FormatFooter("y", "Yes", "n", "No")
// Result: "y Yes  n No" (with descriptions in accent blue+bold)
func FormatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}

// Rule returns a horizontal line of the given display width, optionally
// with a label near the left edge.
func Rule(label string, width int) string {
	if width <= 0 {
		width = 80
	}
	if label == "" {
		return strings.Repeat("─", width)
	}
	label = " " + runewidth.Truncate(label, width-6, "…") + " "
	rest := width - 2 - runewidth.StringWidth(label)
	if rest < 0 {
		rest = 0
	}
	return "──" + label + strings.Repeat("─", rest)
}
