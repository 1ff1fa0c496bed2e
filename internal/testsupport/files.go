package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/tts"
)

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteEventLog encodes events as JSON Lines into path.
func WriteEventLog(t testing.TB, path string, events []tts.Event) {
	t.Helper()

	var buf strings.Builder
	enc := tts.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("encode event: %v", err)
		}
	}
	WriteText(t, path, buf.String())
}
