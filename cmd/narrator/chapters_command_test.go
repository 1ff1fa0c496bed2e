package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/testsupport"
)

func writeNovel(t *testing.T, dir string) string {
	t.Helper()
	body := strings.Repeat("天色渐暗，雨还在下。", 3)
	novel := "第一章 开始\n" + body + "\n第二章 重逢\n" + body + "\n第三章 离别\n" + body + "\n"
	path := filepath.Join(dir, "novel.txt")
	testsupport.WriteText(t, path, novel)
	return path
}

func TestChaptersSplitDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	novel := writeNovel(t, env.baseDir)

	out, _, err := runCLI(t, env.configPath, "chapters", "split", novel, "--min-chars", "10", "--dry-run", "--json")
	if err != nil {
		t.Fatalf("chapters split: %v", err)
	}
	var book struct {
		Encoding string `json:"encoding"`
		Chapters []struct {
			Title string `json:"title"`
		} `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(out), &book); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if book.Encoding != "utf-8" {
		t.Fatalf("encoding = %q", book.Encoding)
	}
	if len(book.Chapters) != 3 || book.Chapters[1].Title != "第二章 重逢" {
		t.Fatalf("chapters = %+v", book.Chapters)
	}

	out, _, err = runCLI(t, env.configPath, "chapters", "split", novel, "--min-chars", "10", "--dry-run", "--merge", "2")
	if err != nil {
		t.Fatalf("chapters split --merge: %v", err)
	}
	requireContains(t, out, "第二章 重逢")
	if strings.Contains(out, "第三章 离别") {
		t.Fatalf("expected chapter three to be merged away:\n%s", out)
	}
}

func TestChaptersSplitWritesAndEnqueues(t *testing.T) {
	env := setupCLITestEnv(t)
	novel := writeNovel(t, env.baseDir)
	outDir := filepath.Join(env.baseDir, "chapters")

	out, _, err := runCLI(t, env.configPath, "chapters", "split", novel, "--min-chars", "10", "--out", outDir, "--enqueue")
	if err != nil {
		t.Fatalf("chapters split: %v", err)
	}
	requireContains(t, out, "Wrote 3 chapters")
	requireContains(t, out, "Queued 3 chapters")

	data, err := os.ReadFile(filepath.Join(outDir, "001-第一章 开始.txt"))
	if err != nil {
		t.Fatalf("read chapter file: %v", err)
	}
	if !strings.HasPrefix(string(data), "第一章 开始\r\n") {
		t.Fatalf("chapter content = %q", data)
	}

	out, _, err = runCLI(t, env.configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "第三章 离别")
}

func TestChaptersSplitInvalidMerge(t *testing.T) {
	env := setupCLITestEnv(t)
	novel := writeNovel(t, env.baseDir)
	if _, _, err := runCLI(t, env.configPath, "chapters", "split", novel, "--dry-run", "--merge", "0"); err == nil {
		t.Fatal("expected merge of the first chapter to fail")
	}
}

func listChapterTitles(t *testing.T, configPath, dir string) []string {
	t.Helper()
	out, _, err := runCLI(t, configPath, "chapters", "list", dir, "--json")
	if err != nil {
		t.Fatalf("chapters list: %v", err)
	}
	var book struct {
		Chapters []struct {
			Title string `json:"title"`
		} `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(out), &book); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	titles := make([]string, len(book.Chapters))
	for i, ch := range book.Chapters {
		titles[i] = ch.Title
	}
	return titles
}

func TestChaptersEditCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	novel := writeNovel(t, env.baseDir)
	dir := filepath.Join(env.baseDir, "chapters")
	if _, _, err := runCLI(t, env.configPath, "chapters", "split", novel, "--min-chars", "10", "--out", dir); err != nil {
		t.Fatalf("chapters split: %v", err)
	}

	// Cut chapter 0 right after its heading line.
	out, _, err := runCLI(t, env.configPath, "chapters", "split-at", dir, "0", "8")
	if err != nil {
		t.Fatalf("chapters split-at: %v", err)
	}
	requireContains(t, out, "Rewrote 4 chapters")
	titles := listChapterTitles(t, env.configPath, dir)
	if len(titles) != 4 || titles[0] != "第一章 开始" || !strings.HasPrefix(titles[1], "天色渐暗") {
		t.Fatalf("titles after split-at = %q", titles)
	}

	if _, _, err := runCLI(t, env.configPath, "chapters", "merge", dir, "1"); err != nil {
		t.Fatalf("chapters merge: %v", err)
	}
	titles = listChapterTitles(t, env.configPath, dir)
	if len(titles) != 3 || titles[1] != "第二章 重逢" {
		t.Fatalf("titles after merge = %q", titles)
	}

	replacement := filepath.Join(env.baseDir, "ending.txt")
	testsupport.WriteText(t, replacement, "第三章 新结局\r\n完")
	if _, _, err := runCLI(t, env.configPath, "chapters", "edit", dir, "2", "--from", replacement); err != nil {
		t.Fatalf("chapters edit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "003-第三章 新结局.txt")); err != nil {
		t.Fatalf("edited chapter file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "003-第三章 离别.txt")); !os.IsNotExist(err) {
		t.Fatalf("old chapter file still present: %v", err)
	}

	if _, _, err := runCLI(t, env.configPath, "chapters", "merge", dir, "0"); err == nil {
		t.Fatal("expected merging the first chapter to fail")
	}
}
