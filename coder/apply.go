package coder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"typeraider/model"
	"typeraider/observability"
)

// FileWriteError reports an edit that could not be written.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("could not write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error { return e.Err }

// Applier writes edits into the working tree.
type Applier struct {
	files    *TrackedFiles
	out      Output
	dryRun   bool
	observer observability.Observer

	// resolved caches the absolute path of every relative path seen.
	resolved map[string]string
}

// NewApplier creates an applier for the tree behind files.
func NewApplier(files *TrackedFiles, out Output, dryRun bool, obs observability.Observer) *Applier {
	if obs == nil {
		obs = observability.NoOpObserver{}
	}
	return &Applier{
		files:    files,
		out:      out,
		dryRun:   dryRun,
		observer: obs,
		resolved: make(map[string]string),
	}
}

// Apply writes every edit and returns the touched paths, relative to the
// root, in first-touch order. A failing edit is reported and skipped; the
// rest of the batch still runs. In dry-run mode nothing is written but the
// would-be touched paths are still returned.
func (a *Applier) Apply(edits []model.EditInstruction) []string {
	var touched []string
	seen := make(map[string]bool)

	for _, edit := range edits {
		abs, err := a.resolve(edit.Path)
		if err != nil {
			a.out.WriteError(err.Error())
			continue
		}
		rel := a.files.Rel(abs)

		if !a.allowed(abs, rel) {
			a.skip(rel, "not allowed")
			continue
		}

		if a.dryRun {
			a.out.WriteText(fmt.Sprintf("Did not apply edit to %s (--dry-run)\n", rel))
		} else {
			if err := writeFile(abs, edit.Content); err != nil {
				werr := &FileWriteError{Path: rel, Err: err}
				a.out.WriteError(werr.Error())
				a.skip(rel, err.Error())
				continue
			}
			a.out.WriteText(fmt.Sprintf("Applied edit to %s\n", rel))
			observability.Emit(context.Background(), a.observer, observability.EventApplyWrite, observability.LevelInfo, "coder.apply", map[string]any{
				"path":  rel,
				"bytes": len(edit.Content),
			})
		}

		if !seen[rel] {
			seen[rel] = true
			touched = append(touched, rel)
		}
	}
	return touched
}

func (a *Applier) resolve(rel string) (string, error) {
	if abs, ok := a.resolved[rel]; ok {
		return abs, nil
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("refusing to edit %s: absolute path, outside %s", rel, a.files.Root())
	}
	abs := a.files.Abs(rel)
	if !a.files.within(abs) {
		return "", fmt.Errorf("refusing to edit %s: outside %s", rel, a.files.Root())
	}
	a.resolved[rel] = abs
	return abs, nil
}

// allowed asks before touching a file that is not in the chat. Granted
// files become tracked, except in dry-run mode.
func (a *Applier) allowed(abs, rel string) bool {
	if a.files.Contains(abs) {
		return true
	}

	question := fmt.Sprintf("Allow edits to %s which was not previously added to chat?", rel)
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		question = fmt.Sprintf("Create new file %s?", rel)
	}
	if !a.out.Confirm(question) {
		a.out.WriteWarning(fmt.Sprintf("Skipping edits to %s", rel))
		return false
	}

	if !a.dryRun {
		a.files.Add(abs)
	}
	return true
}

func (a *Applier) skip(rel, reason string) {
	observability.Emit(context.Background(), a.observer, observability.EventApplySkip, observability.LevelWarning, "coder.apply", map[string]any{
		"path":   rel,
		"reason": reason,
	})
}

// writeFile replaces the file content, keeping the mode of an existing
// file. Parent directories are not created.
func writeFile(path, content string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}
