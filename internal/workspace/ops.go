package workspace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sachima/sachima/internal/reply"
)

// Every operation below checks its preconditions in a fixed order and only
// then touches the filesystem. The checks are hints: two requests may pass
// them together, and the exclusive create, rename or mkdir that follows
// decides the winner.

// probe reports whether path exists. A file used as a directory component
// counts as absent.
func probe(path string, follow bool) (fs.FileInfo, bool, error) {
	var (
		info fs.FileInfo
		err  error
	)
	if follow {
		info, err = os.Stat(path)
	} else {
		info, err = os.Lstat(path)
	}
	switch {
	case err == nil:
		return info, true, nil
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return nil, false, nil
	default:
		return nil, false, reply.Internal(fmt.Errorf("stat %s: %w", path, err))
	}
}

// ValidName checks that name can be used as a single new path element.
func ValidName(name string) error {
	if name == "" {
		return reply.ErrMissingFileName
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return reply.ErrInvalidName
	}
	return nil
}

// Open returns the regular file at rel together with its info. The caller
// closes the file.
func (w *Workspace) Open(rel string) (*os.File, fs.FileInfo, error) {
	path := w.Join(rel)
	if w.isRoot(path) {
		return nil, nil, reply.ErrWorkspaceRoot
	}

	info, ok, err := probe(path, true)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, reply.ErrNotFound
	}
	if info.IsDir() {
		return nil, nil, reply.ErrIsADirectory
	}
	// opening a fifo blocks until a writer shows up
	if !info.Mode().IsRegular() {
		return nil, nil, reply.ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, reply.ErrNotFound
		}
		return nil, nil, reply.Internal(fmt.Errorf("open %s: %w", path, err))
	}
	return f, info, nil
}

// CheckParent verifies that rel names an existing directory that can receive
// an upload.
func (w *Workspace) CheckParent(rel string) error {
	info, ok, err := probe(w.Join(rel), true)
	if err != nil {
		return err
	}
	if !ok || !info.IsDir() {
		return reply.ErrMissingParent
	}
	return nil
}

// Upload creates parent/name exclusively and copies src into it. The parent
// is expected to have passed CheckParent. On a failed copy the partial file
// is removed and the copy error is returned wrapped, so callers can still
// match on it.
func (w *Workspace) Upload(parent, name string, src io.Reader) (int64, error) {
	if err := ValidName(name); err != nil {
		return 0, err
	}
	dest := filepath.Join(w.Join(parent), name)

	_, exists, err := probe(dest, false)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, reply.ErrAlreadyExists
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, reply.ErrAlreadyExists
		}
		if errors.Is(err, fs.ErrNotExist) {
			return 0, reply.ErrMissingParent
		}
		return 0, reply.Internal(fmt.Errorf("create %s: %w", dest, err))
	}

	bw := bufio.NewWriter(f)
	n, err := io.Copy(bw, src)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return n, reply.Internal(fmt.Errorf("write %s: %w", dest, err))
	}
	return n, nil
}

// Rename moves rel to a sibling called name. An existing destination is
// never overwritten.
func (w *Workspace) Rename(rel, name string) error {
	src := w.Join(rel)
	if w.isRoot(src) {
		return reply.ErrWorkspaceRoot
	}

	_, ok, err := probe(src, false)
	if err != nil {
		return err
	}
	if !ok {
		return reply.ErrNotFound
	}
	if err := ValidName(name); err != nil {
		return err
	}

	dest := filepath.Join(filepath.Dir(src), name)
	_, exists, err := probe(dest, false)
	if err != nil {
		return err
	}
	if exists {
		return reply.ErrAlreadyExists
	}

	if err := os.Rename(src, dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reply.ErrNotFound
		}
		return reply.Internal(fmt.Errorf("rename %s: %w", src, err))
	}
	return nil
}

// Remove deletes the file at rel, or the directory at rel with everything
// below it. Symlinks are removed, never followed.
func (w *Workspace) Remove(rel string) error {
	path := w.Join(rel)
	if w.isRoot(path) {
		return reply.ErrWorkspaceRoot
	}

	info, ok, err := probe(path, false)
	if err != nil {
		return err
	}
	if !ok {
		return reply.ErrNotFound
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reply.ErrNotFound
		}
		return reply.Internal(fmt.Errorf("remove %s: %w", path, err))
	}
	return nil
}

// MakeDir creates exactly one directory level at rel.
func (w *Workspace) MakeDir(rel string) error {
	path := w.Join(rel)
	if w.isRoot(path) {
		return reply.ErrWorkspaceRoot
	}

	parent, ok, err := probe(filepath.Dir(path), true)
	if err != nil {
		return err
	}
	if !ok || !parent.IsDir() {
		return reply.ErrMissingParent
	}

	_, exists, err := probe(path, false)
	if err != nil {
		return err
	}
	if exists {
		return reply.ErrAlreadyExists
	}

	if err := os.Mkdir(path, 0o755); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return reply.ErrAlreadyExists
		case errors.Is(err, fs.ErrNotExist):
			return reply.ErrMissingParent
		}
		return reply.Internal(fmt.Errorf("mkdir %s: %w", path, err))
	}
	return nil
}

// List reads the directory at rel. Entries that disappear while the
// directory is being read are skipped.
func (w *Workspace) List(rel string) (*Directory, error) {
	path := w.Join(rel)

	info, ok, err := probe(path, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reply.ErrNotFound
	}
	if !info.IsDir() {
		return nil, reply.ErrNotADirectory
	}

	des, err := os.ReadDir(path)
	if err != nil {
		return nil, reply.Internal(fmt.Errorf("read dir %s: %w", path, err))
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		fi, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, reply.Internal(fmt.Errorf("stat %s: %w", de.Name(), err))
		}
		modified := fi.ModTime()
		e := Entry{Kind: File, Name: de.Name(), Modified: &modified}
		if de.IsDir() {
			e.Kind = Dir
		} else {
			size := fi.Size()
			e.Size = &size
		}
		entries = append(entries, e)
	}
	SortEntries(entries)

	dir := &Directory{Entries: entries}
	if !w.isRoot(path) {
		parent := rel
		dir.Parent = &parent
	}
	return dir, nil
}
