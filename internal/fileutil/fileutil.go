// Package fileutil holds filesystem helpers for writing outputs without
// leaving truncated files behind.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it into place.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	w, err := NewAtomicWriter(path, mode)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Abort()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Commit()
}

// AtomicWriter streams into a temporary sibling of the target path. Nothing
// appears at the target until Commit succeeds; Abort discards the partial file.
type AtomicWriter struct {
	path string
	mode os.FileMode
	tmp  *os.File
	done bool
	n    int64
}

// NewAtomicWriter creates the destination directory and opens a temporary file next to path.
func NewAtomicWriter(path string, mode os.FileMode) (*AtomicWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*"+tempSuffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	return &AtomicWriter{path: path, mode: mode, tmp: tmp}, nil
}

const tempSuffix = ".tmp"

// IsTempName reports whether a file name looks like an AtomicWriter temp file.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix) && len(name) > len(tempSuffix)+1
}

var errWriterClosed = errors.New("atomic writer already closed")

// Write implements io.Writer.
func (w *AtomicWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, errWriterClosed
	}
	n, err := w.tmp.Write(p)
	w.n += int64(n)
	return n, err
}

// Size reports the number of bytes written so far.
func (w *AtomicWriter) Size() int64 {
	return w.n
}

// Commit syncs the temporary file and renames it onto the target path.
func (w *AtomicWriter) Commit() error {
	if w.done {
		return errWriterClosed
	}
	w.done = true
	name := w.tmp.Name()
	if err := w.tmp.Sync(); err != nil {
		_ = w.tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	if err := w.tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	if err := os.Chmod(name, w.mode); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod %s: %w", w.path, err)
	}
	if err := os.Rename(name, w.path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename into %s: %w", w.path, err)
	}
	return nil
}

// Abort closes and removes the temporary file. Safe to call after Commit.
func (w *AtomicWriter) Abort() {
	if w.done {
		return
	}
	w.done = true
	name := w.tmp.Name()
	_ = w.tmp.Close()
	_ = os.Remove(name)
}

var _ io.Writer = (*AtomicWriter)(nil)
