package coder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileRegistry is the set of files whose content goes into every prompt.
// Paths are absolute.
type FileRegistry interface {
	List() []string
	Read(path string) (string, error)
	Add(path string)
	Remove(path string)
	Contains(path string) bool
	// Rel renders path relative to the working-tree root.
	Rel(path string) string
}

// TrackedFiles is the FileRegistry of a working tree.
type TrackedFiles struct {
	root  string
	files map[string]struct{}
}

// NewTrackedFiles creates an empty registry rooted at root.
func NewTrackedFiles(root string) (*TrackedFiles, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return &TrackedFiles{root: abs, files: make(map[string]struct{})}, nil
}

// Root returns the absolute working-tree root.
func (t *TrackedFiles) Root() string { return t.root }

// Abs resolves path against the root.
func (t *TrackedFiles) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(t.root, path)
}

func (t *TrackedFiles) List() []string {
	out := make([]string, 0, len(t.files))
	for f := range t.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (t *TrackedFiles) Read(path string) (string, error) {
	data, err := os.ReadFile(t.Abs(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *TrackedFiles) Add(path string) {
	t.files[t.Abs(path)] = struct{}{}
}

func (t *TrackedFiles) Remove(path string) {
	delete(t.files, t.Abs(path))
}

func (t *TrackedFiles) Contains(path string) bool {
	_, ok := t.files[t.Abs(path)]
	return ok
}

func (t *TrackedFiles) Rel(path string) string {
	rel, err := filepath.Rel(t.root, t.Abs(path))
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// RelList returns the tracked files relative to the root.
func (t *TrackedFiles) RelList() []string {
	files := t.List()
	for i, f := range files {
		files[i] = t.Rel(f)
	}
	return files
}

// within reports whether abs lies inside the root.
func (t *TrackedFiles) within(abs string) bool {
	rel, err := filepath.Rel(t.root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
