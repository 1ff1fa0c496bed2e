// Package staging removes partial output files left behind by interrupted
// conversions.
package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"narrator/internal/fileutil"
	"narrator/internal/logging"
)

// Report summarises one cleanup pass.
type Report struct {
	Removed []string
	Bytes   int64
	// Failed maps a path to the error that kept it on disk.
	Failed map[string]error
}

func (r *Report) fail(path string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]error)
	}
	r.Failed[path] = err
}

type candidate struct {
	path string
	info fs.FileInfo
}

// CleanStale removes atomic-write temp files directly inside dir whose
// modification time is older than maxAge. A missing dir is not an error.
func CleanStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) Report {
	var report Report
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return report
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	stale, err := staleTempFiles(dir, time.Now().Add(-maxAge), &report)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			report.fail(dir, err)
		}
		return report
	}

	for _, c := range stale {
		if ctx.Err() != nil {
			break
		}
		if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			report.fail(c.path, err)
			logging.WarnWithContext(logger, "failed to remove stale partial file", "staging_cleanup_failed",
				logging.String("path", c.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check output_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		report.Removed = append(report.Removed, c.path)
		report.Bytes += c.info.Size()
		logger.Debug("removed stale partial file",
			logging.String("path", c.path),
			logging.String("age", humanize.Time(c.info.ModTime())),
		)
	}

	if len(report.Removed) > 0 {
		logger.Info("stale partial files removed",
			logging.Int("count", len(report.Removed)),
			logging.String("size", humanize.IBytes(uint64(report.Bytes))),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return report
}

// staleTempFiles lists temp files in dir last modified before cutoff.
// Entries that cannot be inspected are recorded on report and skipped.
func staleTempFiles(dir string, cutoff time.Time, report *Report) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var stale []candidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !fileutil.IsTempName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			report.fail(path, err)
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, candidate{path: path, info: info})
		}
	}
	return stale, nil
}
