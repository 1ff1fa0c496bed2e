package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"narrator/internal/chapters"
	"narrator/internal/config"
	"narrator/internal/convert"
	"narrator/internal/logging"
	"narrator/internal/notifications"
	"narrator/internal/queue"
	"narrator/internal/services"
	"narrator/internal/staging"
)

// ErrAlreadyRunning reports that another run holds the state directory lock.
var ErrAlreadyRunning = errors.New("another narrator run is in progress")

// Converter narrates a single chapter.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (convert.Result, error)
}

// Options tunes a Runner.
type Options struct {
	// RecordEvents keeps a JSONL log of synthesis events next to each subtitle file.
	RecordEvents bool
	// Limit stops the run after this many jobs; zero means no limit.
	Limit int
	// Notifier receives run and failure events; nil disables notifications.
	Notifier notifications.Service
	// StaleAfter is the age at which leftover partial outputs are removed
	// when a run starts. Zero uses DefaultStaleAfter.
	StaleAfter time.Duration
}

// DefaultStaleAfter is the default age for removing leftover partial outputs.
const DefaultStaleAfter = 6 * time.Hour

// Summary reports what a run did.
type Summary struct {
	SessionID    string `json:"session_id"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
	Review       int    `json:"review"`
	Recovered    int64  `json:"recovered"`
	Cleaned      int    `json:"cleaned"`
	CleanedBytes int64  `json:"cleaned_bytes"`
	Interrupted  bool   `json:"interrupted"`
}

// Processed returns the number of jobs that reached a final status.
func (s Summary) Processed() int {
	return s.Completed + s.Failed + s.Review
}

// Runner drains pending jobs sequentially.
type Runner struct {
	cfg    *config.Config
	store  *queue.Store
	conv   Converter
	logger *slog.Logger
	opts   Options
	lock   *flock.Flock

	newSessionID func() string
}

// NewRunner constructs a runner. All dependencies are required.
func NewRunner(cfg *config.Config, store *queue.Store, conv Converter, logger *slog.Logger, opts Options) (*Runner, error) {
	if cfg == nil || store == nil || conv == nil {
		return nil, errors.New("workflow runner requires config, store, and converter")
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	return &Runner{
		cfg:          cfg,
		store:        store,
		conv:         conv,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		opts:         opts,
		lock:         flock.New(cfg.LockPath()),
		newSessionID: uuid.NewString,
	}, nil
}

// Run processes pending jobs until none remain, the limit is reached, or ctx
// is cancelled. Cancellation is reported through Summary.Interrupted, not as
// an error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	ok, err := r.lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return summary, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, r.lock.Path())
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	summary.SessionID = r.newSessionID()
	ctx = services.WithScope(ctx, services.Scope{SessionID: summary.SessionID})
	logger := logging.WithContext(ctx, r.logger)

	recovered, err := r.store.ResetStuckConverting(ctx)
	if err != nil {
		return summary, err
	}
	summary.Recovered = recovered
	if recovered > 0 {
		logging.WarnWithContext(logger, "recovered interrupted jobs", "jobs_recovered",
			logging.Int64("count", recovered),
			logging.String(logging.FieldImpact, "interrupted chapters will be converted again"),
		)
	}
	cleaned := staging.CleanStale(ctx, r.cfg.Paths.OutputDir, r.opts.StaleAfter, logger)
	summary.Cleaned = len(cleaned.Removed)
	summary.CleanedBytes = cleaned.Bytes

	stats, err := r.store.Stats(ctx)
	if err != nil {
		return summary, err
	}
	pending := stats[queue.StatusPending]
	logger.Info("run started", logging.String("lock", r.lock.Path()), logging.Int("pending", pending))
	if pending > 0 {
		r.notify(ctx, logger, notifications.EventRunStarted, notifications.Payload{"pending": pending})
	}
	started := time.Now()

	for {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		if r.opts.Limit > 0 && summary.Processed() >= r.opts.Limit {
			break
		}
		job, err := r.store.NextPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			return summary, err
		}
		if job == nil {
			break
		}
		status, err := r.process(ctx, job)
		if err != nil {
			return summary, err
		}
		switch status {
		case queue.StatusCompleted:
			summary.Completed++
		case queue.StatusFailed:
			summary.Failed++
		case queue.StatusReview:
			summary.Review++
		case queue.StatusPending:
			summary.Interrupted = true
		}
		if summary.Interrupted {
			break
		}
	}

	logger.Info("run finished",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("review", summary.Review),
		logging.Bool("interrupted", summary.Interrupted),
	)
	if summary.Processed() > 0 {
		r.notify(context.WithoutCancel(ctx), logger, notifications.EventRunCompleted, notifications.Payload{
			"completed": summary.Completed,
			"failed":    summary.Failed,
			"review":    summary.Review,
			"duration":  time.Since(started),
		})
	}
	return summary, nil
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := r.opts.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run continues without notifications"),
		)
	}
}

// process converts one job and returns the status it was left in. Errors are
// only returned when the ledger itself cannot be updated.
func (r *Runner) process(ctx context.Context, job *queue.Job) (queue.Status, error) {
	if err := r.store.MarkConverting(ctx, job.ID, services.ScopeFrom(ctx).SessionID); err != nil {
		return "", err
	}

	jobCtx := services.WithScope(ctx, services.Scope{JobID: job.ID, Chapter: job.Title})
	logger := logging.WithContext(jobCtx, r.logger)
	if timeout := r.cfg.SynthTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	start := time.Now()
	result, err := r.convert(jobCtx, job, logger)
	if err == nil {
		if err := r.store.MarkCompleted(ctx, job.ID, result.Lines, result.Misses); err != nil {
			return "", err
		}
		logger.Info("chapter completed",
			logging.Int("lines", result.Lines),
			logging.Int("reference_misses", result.Misses),
			logging.Duration("elapsed", time.Since(start)),
		)
		return queue.StatusCompleted, nil
	}

	if ctx.Err() != nil {
		// Use a fresh context: the run context is already cancelled.
		if rerr := r.store.ReturnToPending(context.WithoutCancel(ctx), job.ID); rerr != nil {
			return "", rerr
		}
		logger.Info("chapter interrupted; returned to pending")
		return queue.StatusPending, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = services.Wrap(services.ErrTimeout, "workflow", "convert", fmt.Sprintf("exceeded %ds", r.cfg.SynthTimeout()), err)
	}

	status := services.FailureStatus(err)
	if merr := r.store.MarkFailed(ctx, job.ID, status, err.Error()); merr != nil {
		return "", merr
	}
	logging.ErrorWithContext(logger, "chapter failed", "chapter_failed",
		logging.Error(err),
		logging.String("resolved_status", string(status)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	r.notify(ctx, logger, notifications.EventChapterFailed, notifications.Payload{
		"chapter": job.Title,
		"error":   err.Error(),
	})
	return status, nil
}

func (r *Runner) convert(ctx context.Context, job *queue.Job, logger *slog.Logger) (convert.Result, error) {
	// Chapter files written by narrator are UTF-8; try that before the legacy encodings.
	encodings := append([]string{"utf-8"}, r.cfg.Chapters.Encodings...)
	text, used, err := chapters.ReadText(job.SourcePath, encodings)
	if errors.Is(err, fs.ErrNotExist) {
		return convert.Result{}, services.Wrap(services.ErrNotFound, "workflow", "read chapter", job.SourcePath, err)
	}
	if err != nil {
		return convert.Result{}, services.Wrap(services.ErrValidation, "workflow", "read chapter", "", err)
	}
	logger.Debug("chapter text loaded", logging.String("encoding", used))

	voice := strings.TrimSpace(job.Voice)
	if voice == "" {
		voice = r.cfg.Synth.Voice
	}
	req := convert.Request{
		Title:     job.Title,
		Text:      text,
		AudioPath: job.AudioPath,
		LRCPath:   job.LRCPath,
		Voice:     voice,
		Rate:      r.cfg.Synth.Rate,
		Volume:    r.cfg.Synth.Volume,
		Pitch:     r.cfg.Synth.Pitch,
		Progress: func(fraction float64) {
			if err := r.store.UpdateProgress(ctx, job.ID, fraction); err != nil && ctx.Err() == nil {
				logger.Debug("progress update failed", logging.Error(err))
			}
		},
	}
	if r.opts.RecordEvents {
		req.EventLogPath = EventLogPath(job.LRCPath)
	}
	return r.conv.Convert(ctx, req)
}
