package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"narrator/internal/chapters"
	"narrator/internal/config"
	"narrator/internal/deps"
	"narrator/internal/queue"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckChapterPattern verifies that the configured heading pattern compiles.
func CheckChapterPattern(pattern string) Result {
	const name = "Chapter pattern"
	if _, err := chapters.Compile(pattern); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if pattern == "" || pattern == chapters.DefaultPattern {
		return Result{Name: name, Passed: true, Detail: "default"}
	}
	return Result{Name: name, Passed: true, Detail: "custom"}
}

// CheckQueueDatabase opens the job ledger and reports its schema version.
func CheckQueueDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Job ledger"
	store, err := queue.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d)", store.Path(), version)}
}

// CheckSystemDeps evaluates the external executables required by cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, []deps.Requirement{
		{
			Name:        "Synthesizer",
			Command:     cfg.Synth.Command,
			Description: "Streams speech and word boundaries as JSON Lines",
			VersionArgs: []string{"--version"},
		},
	})
}
