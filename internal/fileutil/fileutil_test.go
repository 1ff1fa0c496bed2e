package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.lrc")

	if err := WriteFileAtomic(path, []byte("[00:00.00]你好"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[00:00.00]你好" {
		t.Fatalf("content mismatch: %q", got)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Fatalf("content = %q, want new", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestAtomicWriterAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.mp3")

	w, err := NewAtomicWriter(path, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("partial")); err != nil {
		t.Fatal(err)
	}
	if w.Size() != 7 {
		t.Fatalf("Size = %d, want 7", w.Size())
	}
	w.Abort()
	w.Abort()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("target should not exist, stat err = %v", err)
	}
	assertNoTempFiles(t, dir)
	if _, err := w.Write([]byte("x")); err == nil {
		t.Fatal("write after abort should fail")
	}
}

func TestAtomicWriterCommitThenAbortKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.mp3")
	w, err := NewAtomicWriter(path, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("complete"))
	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}
	w.Abort()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("committed file missing: %v", err)
	}
	if err := w.Commit(); err == nil {
		t.Fatal("second commit should fail")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Fatalf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestIsTempName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".001-one.mp3.123456.tmp", true},
		{"001-one.mp3", false},
		{".hidden", false},
		{"notes.tmp", false},
		{".tmp", false},
	}
	for _, tt := range tests {
		if got := IsTempName(tt.name); got != tt.want {
			t.Errorf("IsTempName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
