package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"narrator/internal/config"
)

// ConfigOption adjusts a test config after its directories are laid out.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns the default config rooted in a fresh temp directory:
// content/, output/, state/ and logs/ live side by side under it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	root := t.TempDir()
	for dir, field := range map[string]*string{
		"content": &cfg.Paths.ContentDir,
		"output":  &cfg.Paths.OutputDir,
		"state":   &cfg.Paths.StateDir,
		"logs":    &cfg.Paths.LogDir,
	} {
		*field = filepath.Join(root, dir)
	}
	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp root NewConfig laid the directories out in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WithSynthCommand sets the synthesizer executable and its arguments.
func WithSynthCommand(command string, args ...string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Synth.Command = command
		cfg.Synth.Args = append([]string(nil), args...)
	}
}

// WithStubbedBinaries puts do-nothing executables named names (default: the
// configured synthesizer) at the front of PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		if len(names) == 0 {
			names = []string{cfg.Synth.Command}
		}
		bin := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("create stub dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
