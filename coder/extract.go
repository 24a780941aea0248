package coder

import (
	"path/filepath"
	"strings"

	"typeraider/model"
)

// Fence is the delimiter pair around file content in a reply.
type Fence struct {
	Open  string
	Close string
}

// DefaultFence is a pair of triple backticks.
var DefaultFence = Fence{Open: "```", Close: "```"}

// Extractor finds whole-file edits in reply text. An edit is a line naming
// a file followed by a fenced block holding the complete new content:
//
//	src/main.go
//	```go
//	package main
//	```
type Extractor struct {
	Fence Fence
}

// Extract returns the edits in order of appearance. Blocks without a path
// line are skipped. A block cut off by the start of the next edit yields
// nothing and scanning resumes at that edit. An unterminated last block
// ends the scan.
func (e Extractor) Extract(text string) []model.EditInstruction {
	fence := e.Fence
	if fence.Open == "" || fence.Close == "" {
		fence = DefaultFence
	}

	var edits []model.EditInstruction
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), fence.Open) {
			continue
		}

		end, next := blockEnd(lines, i, fence)
		if next >= 0 {
			i = next - 1
			continue
		}
		if end < 0 {
			return edits
		}

		if i > 0 {
			if path, ok := parsePathLine(lines[i-1], fence); ok {
				content := strings.Join(lines[i+1:end], "\n")
				if content != "" {
					content += "\n"
				}
				edits = append(edits, model.EditInstruction{Path: path, Content: content})
			}
		}
		i = end
	}
	return edits
}

// blockEnd finds the closing fence of the block opened at lines[open]. When
// another edit starts first it returns that edit's opening fence as next.
// Both are -1 for an unterminated block.
func blockEnd(lines []string, open int, fence Fence) (end, next int) {
	for j := open + 1; j < len(lines); j++ {
		s := strings.TrimSpace(lines[j])
		if s == fence.Close {
			if startsEdit(lines, j-1, fence) {
				return -1, j
			}
			return j, -1
		}
		if strings.HasPrefix(s, fence.Open) {
			// an opener with an info string, "```python"
			return -1, j
		}
	}
	return -1, -1
}

// startsEdit reports whether lines[i] looks like the path line of a new
// edit rather than the last line of content: a file name after a blank
// line, whose fence is itself closed later on.
func startsEdit(lines []string, i int, fence Fence) bool {
	if i < 1 || strings.TrimSpace(lines[i-1]) != "" {
		return false
	}
	path, ok := parsePathLine(lines[i], fence)
	if !ok || !strings.ContainsAny(path, "./") {
		return false
	}
	for k := i + 2; k < len(lines); k++ {
		if strings.TrimSpace(lines[k]) == fence.Close {
			return true
		}
	}
	return false
}

// parsePathLine accepts a bare path, optionally decorated the way models
// tend to write it: "### path", "`path`", "**path**", "path:".
func parsePathLine(line string, fence Fence) (string, bool) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, fence.Open) || strings.HasPrefix(s, fence.Close) {
		return "", false
	}

	s = strings.TrimSpace(strings.TrimLeft(s, "#"))
	s = strings.Trim(s, "`*")
	s = strings.TrimSuffix(s, ":")
	s = strings.Trim(s, "`*")

	if s == "" || strings.ContainsAny(s, " \t") || strings.ContainsAny(s[len(s)-1:], "!?,;") {
		return "", false
	}
	return filepath.ToSlash(s), true
}

// EditsFromCall converts a write_files payload into edits. Both
// {"files": [{"path", "content"}, ...]} and a single {"path", "content"}
// are accepted; entries without a path or content are skipped.
func EditsFromCall(args map[string]any) []model.EditInstruction {
	if args == nil {
		return nil
	}

	entries := []any{args}
	if files, ok := args["files"].([]any); ok {
		entries = files
	}

	var edits []model.EditInstruction
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		path, _ := m["path"].(string)
		content, ok := m["content"].(string)
		if strings.TrimSpace(path) == "" || !ok {
			continue
		}
		edits = append(edits, model.EditInstruction{Path: strings.TrimSpace(path), Content: content})
	}
	return edits
}
