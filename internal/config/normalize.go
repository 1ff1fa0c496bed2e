package config

import (
	"fmt"
	"os"
	"strings"

	"narrator/internal/chapters"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSynth()
	c.normalizeChapters()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NARRATOR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.ContentDir, err = ExpandPath(c.Paths.ContentDir); err != nil {
		return fmt.Errorf("paths.content_dir: %w", err)
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSynth() {
	c.Synth.Command = strings.TrimSpace(c.Synth.Command)
	if value, ok := os.LookupEnv("NARRATOR_SYNTH_COMMAND"); ok && strings.TrimSpace(value) != "" {
		c.Synth.Command = strings.TrimSpace(value)
	}
	if c.Synth.Command == "" {
		c.Synth.Command = defaultSynthCommand
	}
	c.Synth.Voice = strings.TrimSpace(c.Synth.Voice)
	if c.Synth.Voice == "" {
		if value, ok := os.LookupEnv("NARRATOR_VOICE"); ok {
			c.Synth.Voice = strings.TrimSpace(value)
		}
	}
	if c.Synth.Voice == "" {
		c.Synth.Voice = defaultSynthVoice
	}
	c.Synth.Rate = strings.TrimSpace(c.Synth.Rate)
	c.Synth.Volume = strings.TrimSpace(c.Synth.Volume)
	c.Synth.Pitch = strings.TrimSpace(c.Synth.Pitch)
	c.Synth.AudioExtension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Synth.AudioExtension)), ".")
	if c.Synth.AudioExtension == "" {
		c.Synth.AudioExtension = defaultAudioExtension
	}
	args := c.Synth.Args[:0]
	for _, arg := range c.Synth.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Synth.Args = args
}

func (c *Config) normalizeChapters() {
	if strings.TrimSpace(c.Chapters.Pattern) == "" {
		c.Chapters.Pattern = chapters.DefaultPattern
	}
	if c.Chapters.MinChars < 0 {
		c.Chapters.MinChars = 0
	}
	encodings := make([]string, 0, len(c.Chapters.Encodings))
	seen := make(map[string]struct{}, len(c.Chapters.Encodings))
	for _, enc := range c.Chapters.Encodings {
		normalized := strings.ToLower(strings.TrimSpace(enc))
		if normalized == "utf8" {
			normalized = "utf-8"
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		encodings = append(encodings, normalized)
	}
	if len(encodings) == 0 {
		encodings = append(encodings, chapters.DefaultEncodings...)
	}
	c.Chapters.Encodings = encodings
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
