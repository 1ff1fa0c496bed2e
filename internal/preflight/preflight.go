package preflight

import (
	"context"
	"fmt"

	"narrator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Optional checks are reported but never block a run.
	Optional bool `json:"optional,omitempty"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	content := CheckDirectoryReadable("Content directory", cfg.Paths.ContentDir)
	content.Optional = true
	results = append(results, content)
	results = append(results, CheckChapterPattern(cfg.Chapters.Pattern))
	results = append(results, CheckQueueDatabase(ctx, cfg))

	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Path
		switch {
		case !status.Available:
			detail = status.Detail
		case status.Version != "":
			detail += " (" + status.Version + ")"
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}
	return results
}

// FirstFailure returns an error describing the first failed required check, if any.
func FirstFailure(results []Result) error {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return fmt.Errorf("preflight %s: %s", result.Name, result.Detail)
		}
	}
	return nil
}
