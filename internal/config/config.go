package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ContentDir string `toml:"content_dir"`
	OutputDir  string `toml:"output_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Synth contains configuration for the external speech synthesizer command.
type Synth struct {
	// Command is the executable that reads text on stdin and writes JSONL
	// synthesis events on stdout.
	Command string `toml:"command"`
	// Args are extra arguments placed before the voice/prosody flags.
	Args           []string `toml:"args"`
	Voice          string   `toml:"voice"`
	Rate           string   `toml:"rate"`
	Volume         string   `toml:"volume"`
	Pitch          string   `toml:"pitch"`
	AudioExtension string   `toml:"audio_extension"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// LRC contains the subtitle line-break rules. Non-positive values disable a rule.
type LRC struct {
	StopGapMS  int64   `toml:"stop_gap_ms"`
	CharBudget float64 `toml:"char_budget"`
	// UseReference aligns against the source text to recover punctuation.
	UseReference bool `toml:"use_reference"`
}

// Chapters contains configuration for splitting novels into chapters.
type Chapters struct {
	Pattern   string   `toml:"pattern"`
	MinChars  int      `toml:"min_chars"`
	Encodings []string `toml:"encodings"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains ntfy settings. An empty topic disables notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for narrator.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Synth         Synth         `toml:"synth"`
	LRC           LRC           `toml:"lrc"`
	Chapters      Chapters      `toml:"chapters"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute location 'narrator config init' writes to.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the configuration at path, or searches the default locations when
// path is empty. Missing files are not an error: defaults apply and exists is
// false. The returned config is normalized and validated.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = locate(path)
	if err != nil {
		return nil, "", false, err
	}

	loaded := Default()
	if exists {
		if err := decodeFile(resolved, &loaded); err != nil {
			return nil, "", false, err
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, err
	}
	return &loaded, resolved, exists, nil
}

func decodeFile(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	if err := toml.Unmarshal(data, into); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", filepath.Base(path), row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// locate resolves an explicit path as given. Otherwise the user config wins
// over ./narrator.toml, and the user location is reported when neither exists.
func locate(explicit string) (string, bool, error) {
	if strings.TrimSpace(explicit) != "" {
		path, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		found, err := isFile(path)
		return path, found, err
	}

	userPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := ExpandPath("narrator.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if found, _ := isFile(candidate); found {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the directories narrator writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ContentDir) != "" {
		// Best-effort; the content directory is only read from.
		_ = os.MkdirAll(c.Paths.ContentDir, 0o755)
	}
	return nil
}

// QueueDBPath returns the location of the job ledger database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// LockPath returns the location of the batch run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "narrator.lock")
}

// LogPath returns the location of the narrator log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "narrator.log")
}

// ExpandPath resolves a leading ~ against the home directory and returns the
// cleaned absolute path. An empty value stays empty.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "narrator")
	}
	return "~/.local/state/narrator"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SynthTimeout returns the per-chapter synthesis timeout in seconds; zero means none.
func (c *Config) SynthTimeout() int {
	if c.Synth.TimeoutSeconds < 0 {
		return 0
	}
	return c.Synth.TimeoutSeconds
}
