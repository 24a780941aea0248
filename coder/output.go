// Package coder runs the conversation-to-commit loop: it assembles a
// prompt from the session and the tracked files, sends it with retry,
// streams the reply to the user, extracts whole-file edits, writes them and
// commits the result.
package coder

import (
	"context"

	"typeraider/model"
)

// Output is the user-facing sink.
type Output interface {
	WriteText(s string)
	WriteWarning(s string)
	WriteError(s string)
	// Confirm asks a yes/no question.
	Confirm(prompt string) bool
	// LogExchange records a raw prompt or reply for later inspection.
	LogExchange(direction, content string)
}

// MarkdownWriter is implemented by sinks that can render a complete reply
// as markdown. Buffered replies use it when available.
type MarkdownWriter interface {
	WriteMarkdown(s string)
}

// Exchange directions passed to Output.LogExchange.
const (
	DirectionToLLM    = "TO LLM"
	DirectionResponse = "LLM RESPONSE"
)

// VCS is the version-control collaborator.
type VCS interface {
	// Commit stages files and commits them. Returns nil, nil when there is
	// nothing to commit.
	Commit(ctx context.Context, files []string, message string, flags model.CommitFlags) (*model.CommitRecord, error)
	// UndoCommit reverts rec, which must be the current HEAD.
	UndoCommit(ctx context.Context, rec model.CommitRecord) error
	// Status lists modified paths.
	Status(ctx context.Context) ([]string, error)
}

// LineReader supplies user input to the interactive loop.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}
