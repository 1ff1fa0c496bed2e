package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"narrator/internal/config"
	"narrator/internal/logging"
	"narrator/internal/queue"
	"narrator/internal/services/synth"
)

// commandContext carries the persistent flags and lazily loads what the
// subcommands share. Config and logger are built at most once per process.
type commandContext struct {
	configFile string
	verbose    bool

	ensureConfig func() (*config.Config, error)
	ensureLogger func() (*slog.Logger, error)
}

func newCommandContext() *commandContext {
	c := &commandContext{}
	c.ensureConfig = sync.OnceValues(c.loadConfig)
	c.ensureLogger = sync.OnceValues(c.buildLogger)
	return c
}

func (c *commandContext) bindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
}

func (c *commandContext) configPath() string {
	return strings.TrimSpace(c.configFile)
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	cfg, _, _, err := config.Load(c.configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func (c *commandContext) buildLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// withStore opens the job ledger for the duration of fn.
func (c *commandContext) withStore(fn func(cfg *config.Config, store *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job ledger: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func newSynthService(cfg *config.Config, logger *slog.Logger) *synth.Service {
	return synth.NewService(synth.Config{
		Command: cfg.Synth.Command,
		Args:    cfg.Synth.Args,
		Voice:   cfg.Synth.Voice,
		Rate:    cfg.Synth.Rate,
		Volume:  cfg.Synth.Volume,
		Pitch:   cfg.Synth.Pitch,
	}, logger)
}

// skipConfigLoad is the annotation that opts a command and its children out
// of the config load in the root PersistentPreRunE.
const skipConfigLoad = "skipConfigLoad"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}
