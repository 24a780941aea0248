package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type recordedExchange struct {
	session, direction, model, content string
}

type fakeRecorder struct {
	records []recordedExchange
	err     error
}

func (r *fakeRecorder) Record(sessionID, direction, modelName, content string) error {
	r.records = append(r.records, recordedExchange{sessionID, direction, modelName, content})
	return r.err
}

func TestConsole_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		yes   bool
		want  bool
	}{
		{"default yes", "\n", false, true},
		{"explicit yes", "Yes\n", false, true},
		{"no", "n\n", false, false},
		{"anything else", "maybe\n", false, false},
		{"eof", "", false, false},
		{"yes always", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(strings.NewReader(tt.input), &out, WithYesAlways(tt.yes))

			if got := c.Confirm("Create new file bar.py?"); got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Create new file bar.py? (Y)es/(N)o [Yes]: ") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestConsole_ReadLine(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("/add main.go\r\nrename foo\nlast"), &out)

	for _, want := range []string{"/add main.go", "rename foo", "last"} {
		got, err := c.ReadLine("> ")
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadLine() = %q, want %q", got, want)
		}
	}
	if _, err := c.ReadLine("> "); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine() at end = %v, want io.EOF", err)
	}
	if strings.Count(out.String(), "> ") != 4 {
		t.Errorf("prompts = %q", out.String())
	}
}

func TestConsole_Writes(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out)

	c.WriteText("Hel")
	c.WriteText("lo\n")
	c.WriteWarning("careful")
	c.WriteError("broken")
	c.WriteMarkdown("# Title")

	want := "Hello\ncareful\nbroken\n# Title\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConsole_LogExchange(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewConsole(strings.NewReader(""), io.Discard, WithExchangeLog(rec, "s1", func() string { return "gpt-4o" }))

	c.LogExchange("TO LLM", "SYSTEM hi")
	rec.err = errors.New("disk full")
	c.LogExchange("LLM RESPONSE", "ok")

	if len(rec.records) != 2 {
		t.Fatalf("records = %d", len(rec.records))
	}
	if rec.records[0] != (recordedExchange{"s1", "TO LLM", "gpt-4o", "SYSTEM hi"}) {
		t.Errorf("record = %+v", rec.records[0])
	}

	NewConsole(strings.NewReader(""), io.Discard).LogExchange("TO LLM", "no recorder")
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true},
		{tea.KeyMsg{Type: tea.KeyEnter}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, false},
	}
	for _, tt := range tests {
		m, cmd := confirmModel{question: "Apply?"}.Update(tt.key)
		got := m.(confirmModel)
		if !got.done || got.answer != tt.want || cmd == nil {
			t.Errorf("Update(%v) = %+v, want answer %v", tt.key, got, tt.want)
		}
		if !strings.HasPrefix(got.View(), "Apply? ") {
			t.Errorf("View() = %q", got.View())
		}
	}

	m, cmd := confirmModel{question: "Apply?"}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if m.(confirmModel).done || cmd != nil {
		t.Error("unrelated key ended the prompt")
	}
}

func TestInputModel_SubmitAndHistory(t *testing.T) {
	m := newInputModel("> ", []string{"first", "second"})

	step := func(msg tea.Msg) {
		next, _ := m.Update(msg)
		m = next.(inputModel)
	}

	step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("dra")})
	step(tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "second" {
		t.Errorf("after up = %q", m.input.Value())
	}
	step(tea.KeyMsg{Type: tea.KeyUp})
	step(tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "first" {
		t.Errorf("after up x3 = %q", m.input.Value())
	}
	step(tea.KeyMsg{Type: tea.KeyDown})
	step(tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "dra" {
		t.Errorf("draft = %q", m.input.Value())
	}

	step(tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.input.Value() != "" || m.quit {
		t.Errorf("ctrl+c on text: value %q quit %v", m.input.Value(), m.quit)
	}
	step(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.quit {
		t.Error("ctrl+c on empty prompt did not quit")
	}

	m = newInputModel("> ", nil)
	step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("go")})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.submitted || m.input.Value() != "go" {
		t.Errorf("submitted %v value %q", m.submitted, m.input.Value())
	}
}

func TestConsole_Remember(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard)
	for _, l := range []string{"a", "a", " ", "b"} {
		c.remember(l)
	}
	if strings.Join(c.history, ",") != "a,b" {
		t.Errorf("history = %v", c.history)
	}
}
