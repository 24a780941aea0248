// Package ui is the terminal front end: a line-oriented console that
// streams replies, renders markdown, asks yes/no questions and reads
// input.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// ExchangeRecorder persists raw prompts and replies.
type ExchangeRecorder interface {
	Record(sessionID, direction, modelName, content string) error
}

// Console writes to a terminal or any writer. Confirmations and input use
// bubbletea when both ends are terminals and plain line IO otherwise.
type Console struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer

	interactive bool
	pretty      bool
	yesAlways   bool
	width       int

	logger    *zap.Logger
	exchanges ExchangeRecorder
	sessionID string
	modelName func() string

	mu      sync.Mutex
	history []string
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithPretty enables colors and markdown rendering.
func WithPretty(pretty bool) ConsoleOption {
	return func(c *Console) { c.pretty = pretty }
}

// WithYesAlways answers yes to every confirmation.
func WithYesAlways(yes bool) ConsoleOption {
	return func(c *Console) { c.yesAlways = yes }
}

func WithWidth(width int) ConsoleOption {
	return func(c *Console) { c.width = width }
}

func WithLogger(logger *zap.Logger) ConsoleOption {
	return func(c *Console) { c.logger = logger }
}

// WithExchangeLog records every exchange under sessionID.
func WithExchangeLog(rec ExchangeRecorder, sessionID string, modelName func() string) ConsoleOption {
	return func(c *Console) {
		c.exchanges = rec
		c.sessionID = sessionID
		c.modelName = modelName
	}
}

// NewConsole creates a console reading in and writing out.
func NewConsole(in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		in:          in,
		reader:      bufio.NewReader(in),
		out:         out,
		interactive: isTerminal(in) && isTerminal(out),
		width:       80,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) WriteText(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, s)
}

func (c *Console) WriteWarning(s string) {
	c.writeLine(s, WarningStyle.Render)
}

func (c *Console) WriteError(s string) {
	c.writeLine(s, ErrorStyle.Render)
}

func (c *Console) writeLine(s string, render func(...string) string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pretty {
		s = render(s)
	}
	fmt.Fprintln(c.out, s)
}

// WriteMarkdown writes a complete reply, rendered when pretty output is on.
func (c *Console) WriteMarkdown(s string) {
	if c.pretty {
		s = RenderMarkdown(s, c.width)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	c.WriteText(s)
}

// Confirm asks a yes/no question. The default answer is yes; end of input
// answers no.
func (c *Console) Confirm(question string) bool {
	if c.yesAlways {
		c.WriteText(question + " (Y)es/(N)o [Yes]: y\n")
		return true
	}
	if c.interactive {
		answer, err := runConfirm(question, c.in, c.out)
		if err == nil {
			return answer
		}
		c.logger.Warn("confirm prompt failed", zap.Error(err))
	}

	c.WriteText(question + " (Y)es/(N)o [Yes]: ")
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		c.WriteText("\n")
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// LogExchange records a raw prompt or reply to the debug log and the
// exchange log.
func (c *Console) LogExchange(direction, content string) {
	c.logger.Debug("exchange", zap.String("direction", direction), zap.String("content", content))
	if c.exchanges == nil {
		return
	}

	var modelName string
	if c.modelName != nil {
		modelName = c.modelName()
	}
	if err := c.exchanges.Record(c.sessionID, direction, modelName, content); err != nil {
		c.logger.Warn("exchange log write failed", zap.Error(err))
	}
}

// Banner prints the startup summary.
func (c *Console) Banner(lines ...string) {
	var b strings.Builder
	for _, l := range lines {
		if c.pretty {
			l = DimStyle.Render(l)
		}
		b.WriteString(l + "\n")
	}
	b.WriteString(Rule("", c.width) + "\n")
	c.WriteText(b.String())
}
