package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"narrator/internal/config"
	"narrator/internal/testsupport"
)

// stubSynthScript ignores its input and streams one word boundary for "你好".
const stubSynthScript = `#!/bin/sh
if [ "$1" = "--version" ]; then echo "fake-synth 1.0"; exit 0; fi
cat >/dev/null
echo '{"type":"audio","data":"AAEC"}'
echo '{"type":"WordBoundary","offset":0,"duration":2000000,"text":"你好"}'
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv lays out a temp HOME whose user config points every
// directory into the test's temp root and runs the stub synthesizer.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, withStubSynth)
	cfg.Chapters.Encodings = []string{"utf-8", "gb18030"}
	cfg.Logging.Level = "error"

	env := &cliTestEnv{cfg: cfg, baseDir: testsupport.BaseDir(cfg)}
	home := filepath.Join(env.baseDir, "home")
	t.Setenv("HOME", home)
	env.configPath = filepath.Join(home, ".config", "narrator", "config.toml")
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func withStubSynth(t testing.TB, cfg *config.Config) {
	path := filepath.Join(testsupport.BaseDir(cfg), "bin", "fake-synth")
	mustWrite(t, path, stubSynthScript, 0o755)
	cfg.Synth.Command = path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	mustWrite(t, path, string(data), 0o644)
}

func mustWrite(t testing.TB, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
