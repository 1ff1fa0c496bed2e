package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"narrator/internal/chapters"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every unusable setting, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	problem := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problem("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		problem("paths.state_dir must be set")
	}

	if strings.TrimSpace(c.Synth.Command) == "" {
		problem("synth.command must be set")
	}
	if strings.ContainsAny(c.Synth.AudioExtension, `/\`) {
		problem("synth.audio_extension: invalid value %q", c.Synth.AudioExtension)
	}

	if c.LRC.CharBudget > 0 && c.LRC.CharBudget < 1 {
		problem("lrc.char_budget must be at least 1 when enabled, got %v", c.LRC.CharBudget)
	}

	if _, err := regexp.Compile(c.Chapters.Pattern); err != nil {
		problem("chapters.pattern: %w", err)
	}
	for _, enc := range c.Chapters.Encodings {
		if !chapters.IsSupportedEncoding(enc) {
			problem("chapters.encodings: unsupported encoding %q", enc)
		}
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		problem("logging.level: unsupported value %q (want one of %s)", c.Logging.Level, strings.Join(logLevels, ", "))
	}

	if topic := c.Notifications.NtfyTopic; topic != "" {
		u, err := url.Parse(topic)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problem("notifications.ntfy_topic: expected an http(s) URL, got %q", topic)
		}
	}

	return errors.Join(errs...)
}
