package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"narrator/internal/chapters"
	"narrator/internal/config"
	"narrator/internal/queue"
)

// MustOpenStore opens the ledger configured by cfg and closes it when the test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustEnqueueChapter writes content to <content_dir>/<name>.txt and queues
// it, titled after its first line, with outputs named <name> in the output
// directory.
func MustEnqueueChapter(t testing.TB, store *queue.Store, cfg *config.Config, name, content string) *queue.Job {
	t.Helper()

	source := filepath.Join(cfg.Paths.ContentDir, name+".txt")
	WriteText(t, source, content)
	out := filepath.Join(cfg.Paths.OutputDir, name)
	job, err := store.Enqueue(context.Background(), queue.NewJob{
		SourcePath: source,
		Title:      chapters.Title(content),
		AudioPath:  out + "." + cfg.Synth.AudioExtension,
		LRCPath:    out + ".lrc",
	})
	if err != nil {
		t.Fatalf("enqueue %s: %v", name, err)
	}
	return job
}
