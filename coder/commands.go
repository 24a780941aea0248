package coder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/sahilm/fuzzy"

	"typeraider/model"
)

const (
	largeChatFiles  = 4
	largeChatTokens = 20000
)

type command struct {
	name string
	help string
	run  func(c *Coder, ctx context.Context, args string) bool
}

var commands []command

func init() {
	commands = []command{
		{"/add", "Add files to the chat", (*Coder).cmdAdd},
		{"/drop", "Remove files from the chat, or all files with no argument", (*Coder).cmdDrop},
		{"/ls", "List files in the chat", (*Coder).cmdList},
		{"/undo", "Undo the last automatic commit", (*Coder).cmdUndo},
		{"/status", "Show modified files in the working tree", (*Coder).cmdStatus},
		{"/tokens", "Report token usage of the next prompt", (*Coder).cmdTokens},
		{"/clear", "Clear the chat history", (*Coder).cmdClear},
		{"/copy", "Copy the last reply to the clipboard", (*Coder).cmdCopy},
		{"/model", "Show or switch the model", (*Coder).cmdModel},
		{"/help", "Show this help", (*Coder).cmdHelp},
		{"/quit", "Exit", (*Coder).cmdQuit},
		{"/exit", "Exit", (*Coder).cmdQuit},
	}
}

// runCommand executes a slash command. It reports whether the loop should
// end.
func (c *Coder) runCommand(ctx context.Context, line string) bool {
	name, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(c, ctx, args)
		}
	}
	c.out.WriteWarning(fmt.Sprintf("Unknown command %s. Type /help for a list.", name))
	return false
}

// AddFiles tracks every file matching the patterns. A pattern naming a
// missing file offers to create it.
func (c *Coder) AddFiles(patterns ...string) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(c.files.Abs(pattern))
		if err != nil {
			c.out.WriteError(fmt.Sprintf("Bad pattern %s: %v", pattern, err))
			continue
		}

		if len(matches) == 0 {
			rel := c.files.Rel(pattern)
			if !c.files.within(c.files.Abs(pattern)) {
				c.out.WriteError(fmt.Sprintf("Skipping %s: outside %s", pattern, c.files.Root()))
				continue
			}
			if !c.out.Confirm(fmt.Sprintf("No files matched %s. Create it?", rel)) {
				continue
			}
			if err := writeFile(c.files.Abs(pattern), ""); err != nil {
				c.out.WriteError(fmt.Sprintf("Could not create %s: %v", rel, err))
				continue
			}
			matches = []string{c.files.Abs(pattern)}
		}

		for _, m := range matches {
			c.addFile(m)
		}
	}
	c.warnLargeChat()
}

func (c *Coder) addFile(abs string) {
	rel := c.files.Rel(abs)
	info, err := os.Stat(abs)
	switch {
	case err != nil:
		c.out.WriteError(fmt.Sprintf("Could not add %s: %v", rel, err))
		return
	case info.IsDir():
		c.out.WriteWarning(fmt.Sprintf("Skipping directory %s", rel))
		return
	case !c.files.within(abs):
		c.out.WriteError(fmt.Sprintf("Skipping %s: outside %s", rel, c.files.Root()))
		return
	case c.files.Contains(abs):
		c.out.WriteWarning(fmt.Sprintf("%s is already in the chat", rel))
		return
	}
	c.files.Add(abs)
	c.out.WriteText(fmt.Sprintf("Added %s to the chat\n", rel))
}

func (c *Coder) warnLargeChat() {
	if c.warnedLarge || len(c.files.List()) < largeChatFiles {
		return
	}
	var tokens int
	for _, f := range c.files.List() {
		content, err := c.files.Read(f)
		if err == nil {
			tokens += model.CountTokens(content)
		}
	}
	if tokens < largeChatTokens {
		return
	}
	c.warnedLarge = true
	c.out.WriteWarning(fmt.Sprintf("The chat holds %d files and about %d tokens. Drop files you do not need with /drop.", len(c.files.List()), tokens))
}

// DropFiles untracks files. Each argument is tried as an exact path, then a
// glob, then the closest fuzzy match among tracked files. No arguments
// drops everything.
func (c *Coder) DropFiles(args ...string) {
	if len(args) == 0 {
		for _, f := range c.files.List() {
			c.files.Remove(f)
		}
		c.out.WriteText("Dropped all files from the chat\n")
		return
	}

	for _, arg := range args {
		dropped := c.dropMatches(arg)
		if len(dropped) == 0 {
			c.out.WriteWarning(fmt.Sprintf("No file in the chat matches %s", arg))
			continue
		}
		for _, f := range dropped {
			c.files.Remove(f)
			c.out.WriteText(fmt.Sprintf("Removed %s from the chat\n", c.files.Rel(f)))
		}
	}
}

func (c *Coder) dropMatches(arg string) []string {
	if c.files.Contains(arg) {
		return []string{c.files.Abs(arg)}
	}

	tracked := c.files.List()
	var globbed []string
	for _, f := range tracked {
		if ok, _ := filepath.Match(arg, c.files.Rel(f)); ok {
			globbed = append(globbed, f)
		}
	}
	if len(globbed) > 0 {
		return globbed
	}

	rels := c.files.RelList()
	matches := fuzzy.Find(arg, rels)
	if len(matches) == 0 {
		return nil
	}
	sort.Stable(matches)
	return []string{tracked[matches[0].Index]}
}

func (c *Coder) cmdAdd(_ context.Context, args string) bool {
	if args == "" {
		c.out.WriteWarning("Usage: /add <file or glob> ...")
		return false
	}
	c.AddFiles(strings.Fields(args)...)
	return false
}

func (c *Coder) cmdDrop(_ context.Context, args string) bool {
	c.DropFiles(strings.Fields(args)...)
	return false
}

func (c *Coder) cmdList(_ context.Context, _ string) bool {
	files := c.files.RelList()
	if len(files) == 0 {
		c.out.WriteText("No files in the chat\n")
		return false
	}
	var b strings.Builder
	b.WriteString("Files in the chat:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	c.out.WriteText(b.String())
	return false
}

func (c *Coder) cmdUndo(ctx context.Context, _ string) bool {
	if err := c.committer.Undo(ctx); err != nil {
		c.out.WriteError(fmt.Sprintf("Unable to undo: %v", err))
	}
	return false
}

func (c *Coder) cmdStatus(ctx context.Context, _ string) bool {
	if c.repo == nil {
		c.out.WriteWarning("No git repository found.")
		return false
	}
	paths, err := c.committer.Status(ctx)
	if err != nil {
		c.out.WriteError(fmt.Sprintf("Unable to read status: %v", err))
		return false
	}
	if len(paths) == 0 {
		c.out.WriteText("Working tree clean\n")
		return false
	}
	c.out.WriteText("Modified:\n  " + strings.Join(paths, "\n  ") + "\n")
	return false
}

func (c *Coder) cmdTokens(_ context.Context, _ string) bool {
	var b strings.Builder
	system := model.CountTokens(systemPrompt(c.cfg.EditFormat, c.cfg.Fence))
	history := model.CountMessageTokens(model.Messages(c.ledger.History()))
	total := system + history
	fmt.Fprintf(&b, "%8d system prompt\n", system)
	fmt.Fprintf(&b, "%8d chat history\n", history)
	for _, f := range c.files.List() {
		content, err := c.files.Read(f)
		if err != nil {
			continue
		}
		n := model.CountTokens(content)
		total += n
		fmt.Fprintf(&b, "%8d %s\n", n, c.files.Rel(f))
	}
	fmt.Fprintf(&b, "%8d total\n", total)
	c.out.WriteText(b.String())
	return false
}

func (c *Coder) cmdClear(_ context.Context, _ string) bool {
	c.ledger.Clear()
	c.saveSession()
	c.out.WriteText("Chat history cleared\n")
	return false
}

func (c *Coder) cmdCopy(_ context.Context, _ string) bool {
	if c.lastReply == "" {
		c.out.WriteWarning("No reply to copy yet.")
		return false
	}
	if err := clipboard.WriteAll(c.lastReply); err != nil {
		c.out.WriteError(fmt.Sprintf("Could not copy to clipboard: %v", err))
		return false
	}
	c.out.WriteText("Copied the last reply to the clipboard\n")
	return false
}

func (c *Coder) cmdModel(_ context.Context, args string) bool {
	if args == "" {
		c.out.WriteText(fmt.Sprintf("Model: %s\n", c.provider.GetModel()))
		return false
	}
	// warm-up pings read the provider's model
	c.warmer.Stop()
	c.provider.SetModel(args)
	c.out.WriteText(fmt.Sprintf("Switched to model %s\n", args))
	return false
}

func (c *Coder) cmdHelp(_ context.Context, _ string) bool {
	var b strings.Builder
	for _, cmd := range commands {
		fmt.Fprintf(&b, "%-8s %s\n", cmd.name, cmd.help)
	}
	c.out.WriteText(b.String())
	return false
}

func (c *Coder) cmdQuit(_ context.Context, _ string) bool {
	return true
}
