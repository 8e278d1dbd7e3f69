// Package workspace resolves client paths against the single directory the
// server is allowed to touch and performs the file operations on it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSysError reports a workspace directory that could not be opened.
type FileSysError struct {
	Path string
	Err  error
}

func (e *FileSysError) Error() string {
	return fmt.Sprintf("workspace %s: %v", e.Path, e.Err)
}

func (e *FileSysError) Unwrap() error { return e.Err }

// Workspace is an absolute directory fixed at startup. It is safe for
// concurrent use; it holds no mutable state.
type Workspace struct {
	root string
}

// New expands a leading "~", checks that the directory can be enumerated and
// touches its access time.
func New(raw string) (*Workspace, error) {
	path, err := expandHome(raw)
	if err != nil {
		return nil, &FileSysError{Path: raw, Err: err}
	}
	if path, err = filepath.Abs(path); err != nil {
		return nil, &FileSysError{Path: raw, Err: err}
	}

	if _, err := os.ReadDir(path); err != nil {
		return nil, &FileSysError{Path: path, Err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileSysError{Path: path, Err: err}
	}
	if err := os.Chtimes(path, time.Now(), info.ModTime()); err != nil {
		return nil, &FileSysError{Path: path, Err: err}
	}

	return &Workspace{root: path}, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Root returns the absolute workspace directory.
func (w *Workspace) Root() string { return w.root }

// Join resolves rel under the root. It does not resolve symlinks; rel must
// already be relative and free of ".." segments.
func (w *Workspace) Join(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func (w *Workspace) isRoot(path string) bool {
	return path == w.root
}
