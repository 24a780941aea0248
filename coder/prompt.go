package coder

import (
	"fmt"
	"strings"

	"typeraider/model"
)

// Assembler builds the outbound prompt for a turn.
type Assembler struct {
	files  FileRegistry
	out    Output
	fence  Fence
	format EditFormat
}

// NewAssembler creates a prompt assembler.
func NewAssembler(files FileRegistry, out Output, fence Fence, format EditFormat) *Assembler {
	if fence.Open == "" || fence.Close == "" {
		fence = DefaultFence
	}
	return &Assembler{files: files, out: out, fence: fence, format: format}
}

// Assemble returns the system prompt, the current content of every tracked
// file, history and then userMessage. Files are read on every call; an
// unreadable file is reported and left out.
func (a *Assembler) Assemble(history []model.Turn, userMessage string) []model.Message {
	msgs := make([]model.Message, 0, len(history)+4)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: systemPrompt(a.format, a.fence)})

	if listing := a.filesContent(); listing != "" {
		msgs = append(msgs,
			model.Message{Role: model.RoleUser, Content: filesIntro + listing},
			model.Message{Role: model.RoleAssistant, Content: filesAck},
		)
	}

	msgs = append(msgs, model.Messages(history)...)
	return append(msgs, model.Message{Role: model.RoleUser, Content: userMessage})
}

func (a *Assembler) filesContent() string {
	var b strings.Builder
	for _, path := range a.files.List() {
		rel := a.files.Rel(path)
		content, err := a.files.Read(path)
		if err != nil {
			a.out.WriteWarning(fmt.Sprintf("Could not read %s: %v", rel, err))
			continue
		}
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		fmt.Fprintf(&b, "\n%s\n%s\n%s%s\n", rel, a.fence.Open, content, a.fence.Close)
	}
	return b.String()
}
