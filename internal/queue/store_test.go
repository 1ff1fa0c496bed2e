package queue_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"narrator/internal/queue"
	"narrator/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}
	if store.Path() != cfg.QueueDBPath() {
		t.Fatalf("path = %q, want %q", store.Path(), cfg.QueueDBPath())
	}

	// Reopening must not reapply migrations.
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if again, err := reopened.SchemaVersion(ctx); err != nil || again != 1 {
		t.Fatalf("reopened version = %d, %v", again, err)
	}
}

func TestEnqueueAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustEnqueueChapter(t, store, cfg, "001-第一章", "第一章 开始\n正文")
	if job.ID == 0 || job.Status != queue.StatusPending {
		t.Fatalf("unexpected job: %#v", job)
	}
	if job.Title != "第一章 开始" {
		t.Fatalf("title = %q", job.Title)
	}
	if job.CreatedAt.IsZero() || job.StartedAt != nil {
		t.Fatalf("unexpected timestamps: %#v", job)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.SourcePath != job.SourcePath || fetched.LRCPath != filepath.Join(cfg.Paths.OutputDir, "001-第一章.lrc") {
		t.Fatalf("fetched = %#v", fetched)
	}

	if _, err := store.Get(ctx, 999); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}
}

func TestEnqueueRejectsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.MustEnqueueChapter(t, store, cfg, "a", "甲")

	_, err := store.Enqueue(context.Background(), queue.NewJob{
		SourcePath: job.SourcePath,
		AudioPath:  job.AudioPath,
		LRCPath:    job.LRCPath,
	})
	if !errors.Is(err, queue.ErrDuplicateJob) {
		t.Fatalf("err = %v, want ErrDuplicateJob", err)
	}
}

func TestEnqueueValidatesPaths(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Enqueue(context.Background(), queue.NewJob{SourcePath: "x.txt"}); err == nil {
		t.Fatal("expected error without output paths")
	}
	if _, err := store.Enqueue(context.Background(), queue.NewJob{AudioPath: "a", LRCPath: "b"}); err == nil {
		t.Fatal("expected error without source path")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.MustEnqueueChapter(t, store, cfg, "a", "甲")
	second := testsupport.MustEnqueueChapter(t, store, cfg, "b", "乙")

	next, err := store.NextPending(ctx)
	if err != nil || next == nil || next.ID != first.ID {
		t.Fatalf("NextPending = %#v, %v; want first job", next, err)
	}

	if err := store.MarkConverting(ctx, first.ID, "session-1"); err != nil {
		t.Fatalf("MarkConverting: %v", err)
	}
	if err := store.MarkConverting(ctx, first.ID, "session-1"); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("double claim err = %v", err)
	}
	if err := store.UpdateProgress(ctx, first.ID, 1.7); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, _ := store.Get(ctx, first.ID)
	if got.Status != queue.StatusConverting || got.Progress != 1 || got.Attempts != 1 || got.SessionID != "session-1" {
		t.Fatalf("converting job = %#v", got)
	}

	next, _ = store.NextPending(ctx)
	if next == nil || next.ID != second.ID {
		t.Fatalf("NextPending should skip converting job, got %#v", next)
	}

	if err := store.MarkCompleted(ctx, first.ID, 12, 1); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	got, _ = store.Get(ctx, first.ID)
	if got.Status != queue.StatusCompleted || got.Lines != 12 || got.Misses != 1 || got.FinishedAt == nil {
		t.Fatalf("completed job = %#v", got)
	}
	if got.Duration() < 0 {
		t.Fatalf("negative duration")
	}
	if err := store.UpdateProgress(ctx, first.ID, 0.5); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("progress on completed err = %v", err)
	}
	if err := store.MarkCompleted(ctx, 404, 0, 0); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("missing job err = %v", err)
	}
}

func TestMarkFailedAndRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	failed := testsupport.MustEnqueueChapter(t, store, cfg, "a", "甲")
	review := testsupport.MustEnqueueChapter(t, store, cfg, "b", "乙")
	pending := testsupport.MustEnqueueChapter(t, store, cfg, "c", "丙")

	for _, job := range []*queue.Job{failed, review} {
		if err := store.MarkConverting(ctx, job.ID, "s"); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.MarkFailed(ctx, failed.ID, queue.StatusCompleted, "nope"); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("MarkFailed with completed err = %v", err)
	}
	if err := store.MarkFailed(ctx, failed.ID, queue.StatusFailed, "synth crashed"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkFailed(ctx, review.ID, queue.StatusReview, "empty text"); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(ctx, failed.ID)
	if got.ErrorMessage != "synth crashed" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}

	n, err := store.Retry(ctx, review.ID)
	if err != nil || n != 1 {
		t.Fatalf("Retry(review) = %d, %v", n, err)
	}
	n, err = store.Retry(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Retry() = %d, %v; want only the failed job", n, err)
	}
	jobs, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 {
		t.Fatalf("pending jobs = %d, want 3", len(jobs))
	}
	for _, job := range jobs {
		if job.ErrorMessage != "" {
			t.Fatalf("retry should clear error: %#v", job)
		}
	}
	if jobs[2].ID != pending.ID {
		t.Fatalf("List should order by id")
	}
}

func TestReturnToPendingAndResetStuck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.MustEnqueueChapter(t, store, cfg, "a", "甲")
	b := testsupport.MustEnqueueChapter(t, store, cfg, "b", "乙")
	for _, job := range []*queue.Job{a, b} {
		if err := store.MarkConverting(ctx, job.ID, "s"); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.ReturnToPending(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	n, err := store.ResetStuckConverting(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetStuckConverting = %d, %v", n, err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[queue.StatusPending] != 2 || stats[queue.StatusConverting] != 0 {
		t.Fatalf("stats = %v", stats)
	}
	if _, ok := stats[queue.StatusReview]; !ok {
		t.Fatalf("stats should include every status: %v", stats)
	}
}

func TestClearAndRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	done := testsupport.MustEnqueueChapter(t, store, cfg, "a", "甲")
	active := testsupport.MustEnqueueChapter(t, store, cfg, "b", "乙")
	waiting := testsupport.MustEnqueueChapter(t, store, cfg, "c", "丙")

	_ = store.MarkConverting(ctx, done.ID, "s")
	_ = store.MarkCompleted(ctx, done.ID, 1, 0)
	_ = store.MarkConverting(ctx, active.ID, "s")

	n, err := store.Clear(ctx, queue.StatusCompleted)
	if err != nil || n != 1 {
		t.Fatalf("Clear(completed) = %d, %v", n, err)
	}
	n, err = store.Clear(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Clear() = %d, %v; converting job must survive", n, err)
	}
	removed, err := store.Remove(ctx, active.ID)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, _ = store.Remove(ctx, waiting.ID)
	if removed {
		t.Fatal("waiting job should already be cleared")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want queue.Status
		ok   bool
	}{
		{"pending", queue.StatusPending, true},
		{" Review ", queue.StatusReview, true},
		{"ripping", "", false},
	}
	for _, tt := range tests {
		got, ok := queue.ParseStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStatus(%q) = %q, %v", tt.in, got, ok)
		}
	}
	if !queue.StatusReview.IsRetryable() || queue.StatusCompleted.IsRetryable() {
		t.Error("IsRetryable mismatch")
	}
	if len(queue.AllStatuses()) != 5 {
		t.Error("AllStatuses should list five statuses")
	}
}
