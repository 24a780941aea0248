package ui

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ReadLine reads one line of input. It returns io.EOF when input ends or
// the user quits from an empty prompt.
func (c *Console) ReadLine(prompt string) (string, error) {
	if c.interactive {
		line, err := c.readInteractive(prompt)
		if err == nil {
			c.remember(line)
		}
		return line, err
	}

	if c.pretty {
		prompt = UserStyle.Render(prompt)
	}
	c.WriteText(prompt)
	line, err := c.reader.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) remember(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.history); n > 0 && c.history[n-1] == line {
		return
	}
	c.history = append(c.history, line)
}

func (c *Console) readInteractive(prompt string) (string, error) {
	c.mu.Lock()
	history := append([]string(nil), c.history...)
	c.mu.Unlock()

	final, err := tea.NewProgram(newInputModel(prompt, history), tea.WithInput(c.in), tea.WithOutput(c.out)).Run()
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if m.quit {
		return "", io.EOF
	}
	return m.input.Value(), nil
}

type inputModel struct {
	input   textinput.Model
	history []string
	// pos indexes history while browsing; len(history) is the fresh line.
	pos   int
	draft string

	submitted bool
	quit      bool
}

func newInputModel(prompt string, history []string) inputModel {
	ti := textinput.New()
	ti.Prompt = UserStyle.Render(prompt)
	ti.Placeholder = "ask for a change, or /help"
	ti.CharLimit = 0
	ti.Focus()
	return inputModel{input: ti, history: history, pos: len(history)}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.quit = true
				return m, tea.Quit
			}
		case tea.KeyCtrlC:
			if m.input.Value() == "" {
				m.quit = true
				return m, tea.Quit
			}
			m.input.SetValue("")
			return m, nil
		case tea.KeyUp:
			m.browse(-1)
			return m, nil
		case tea.KeyDown:
			m.browse(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inputModel) browse(delta int) {
	next := m.pos + delta
	if next < 0 || next > len(m.history) {
		return
	}
	if m.pos == len(m.history) {
		m.draft = m.input.Value()
	}
	m.pos = next
	if next == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[next])
	}
	m.input.CursorEnd()
}

func (m inputModel) View() string {
	if m.submitted || m.quit {
		return m.input.Prompt + m.input.Value() + "\n"
	}
	return m.input.View()
}
