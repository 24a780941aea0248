package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	question string
	answer   bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y", "enter":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n", "N", "esc", "ctrl+c", "ctrl+d":
		m.answer, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		return m.question + " " + DimStyle.Render(answer) + "\n"
	}
	return TitleStyle.Render(m.question) + "  " + FormatFooter("y", "Yes", "n", "No")
}

func runConfirm(question string, in io.Reader, out io.Writer) (bool, error) {
	final, err := tea.NewProgram(confirmModel{question: question}, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}
