package console

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akedrou/textdiff"

	"github.com/specvital/bake/pkg/bake"
)

// Overwrite answers.
const (
	answerYes  = "y"
	answerNo   = "n"
	answerAll  = "a"
	answerQuit = "q"
)

// ErrQuit is returned once the user chose to stop writing files.
// It matches bake.ErrAborted, which ends a batch early.
var ErrQuit = fmt.Errorf("console: quit at overwrite prompt: %w", bake.ErrAborted)

// FileWriter creates files, asking before it replaces an existing one.
// It is not safe for concurrent use.
type FileWriter struct {
	console *Console
	force   bool
	quit    bool
}

// NewFileWriter creates a FileWriter. With force set existing files are
// overwritten without asking.
func NewFileWriter(c *Console, force bool) *FileWriter {
	return &FileWriter{console: c, force: force}
}

// CreateFile writes contents to path, creating parent directories.
// It returns false without error when the file was left untouched: the
// contents are identical, or the overwrite was declined.
func (w *FileWriter) CreateFile(path, contents string) (bool, error) {
	if w.quit {
		return false, ErrQuit
	}

	current, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return false, fmt.Errorf("read %s: %w", path, err)
	case bytes.Equal(current, []byte(contents)):
		w.console.Out(fmt.Sprintf("File `%s` exists and is identical, skipping", path))
		return false, nil
	case !w.force:
		ok, err := w.confirmOverwrite(path, string(current), contents)
		if !ok || err != nil {
			return false, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	w.console.Success(fmt.Sprintf("Wrote `%s`", path))
	return true, nil
}

func (w *FileWriter) confirmOverwrite(path, current, contents string) (bool, error) {
	if !w.console.Interactive() {
		w.console.Warn(fmt.Sprintf("File `%s` exists, use --force to overwrite", path))
		return false, nil
	}

	w.console.Out(fmt.Sprintf("File `%s` exists", path))
	w.console.Diff(textdiff.Unified(path+" (current)", path+" (new)", current, contents))

	switch w.console.Ask("Do you want to overwrite?", []string{answerYes, answerNo, answerAll, answerQuit}, answerNo) {
	case answerYes:
		return true, nil
	case answerAll:
		w.force = true
		return true, nil
	case answerQuit:
		w.quit = true
		return false, ErrQuit
	default:
		w.console.Out(fmt.Sprintf("Skip `%s`", path))
		return false, nil
	}
}
