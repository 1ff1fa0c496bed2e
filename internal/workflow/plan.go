package workflow

import (
	"path/filepath"
	"strings"

	"narrator/internal/config"
	"narrator/internal/queue"
)

// PlanJob derives the output locations for a chapter file: audio and
// subtitles share the source's base name under the configured output directory.
func PlanJob(cfg *config.Config, sourcePath, title string) queue.NewJob {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if strings.TrimSpace(title) == "" {
		title = base
	}
	return queue.NewJob{
		SourcePath: sourcePath,
		Title:      title,
		AudioPath:  filepath.Join(cfg.Paths.OutputDir, base+"."+cfg.Synth.AudioExtension),
		LRCPath:    filepath.Join(cfg.Paths.OutputDir, base+".lrc"),
	}
}

// EventLogPath returns where a job's recorded synthesis events are kept.
func EventLogPath(lrcPath string) string {
	return strings.TrimSuffix(lrcPath, filepath.Ext(lrcPath)) + ".events.jsonl"
}
