package main

import (
	"os"
	"strings"
	"testing"
)

func TestLogsFiltersByJob(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "2026-01-01T00:00:00Z INFO workflow [甲]: chapter completed job_id=1\n" +
		"2026-01-01T00:00:01Z ERROR workflow [乙]: chapter failed job_id=2\n"
	if err := os.WriteFile(env.cfg.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, env.configPath, "logs", "--job", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	requireContains(t, out, "chapter failed")

	out, _, err = runCLI(t, env.configPath, "logs", "-n", "5")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected both lines, got %q", out)
	}
}
