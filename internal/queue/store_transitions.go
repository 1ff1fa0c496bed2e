package queue

import (
	"context"
	"fmt"
)

// MarkConverting claims a pending job for the given run session.
func (s *Store) MarkConverting(ctx context.Context, id int64, sessionID string) error {
	timestamp := formatTime(now())
	return s.transition(ctx, id, StatusPending,
		`UPDATE jobs SET status = ?, session_id = ?, progress = 0, attempts = attempts + 1,
            error_message = NULL, started_at = ?, finished_at = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusConverting, nullableString(sessionID), timestamp, timestamp, id, StatusPending)
}

// UpdateProgress records the completed fraction of a converting job, clamped to [0,1].
func (s *Store) UpdateProgress(ctx context.Context, id int64, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return s.transition(ctx, id, StatusConverting,
		`UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ? AND status = ?`,
		progress, formatTime(now()), id, StatusConverting)
}

// MarkCompleted finishes a converting job with its subtitle statistics.
func (s *Store) MarkCompleted(ctx context.Context, id int64, lines, misses int) error {
	timestamp := formatTime(now())
	return s.transition(ctx, id, StatusConverting,
		`UPDATE jobs SET status = ?, progress = 1, line_count = ?, miss_count = ?,
            error_message = NULL, finished_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted, lines, misses, timestamp, timestamp, id, StatusConverting)
}

// MarkFailed records a failed conversion. status must be StatusFailed or StatusReview.
func (s *Store) MarkFailed(ctx context.Context, id int64, status Status, message string) error {
	if status != StatusFailed && status != StatusReview {
		return fmt.Errorf("mark job %d %s: %w", id, status, ErrInvalidTransition)
	}
	timestamp := formatTime(now())
	return s.transition(ctx, id, StatusConverting,
		`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status, nullableString(message), timestamp, timestamp, id, StatusConverting)
}

// ReturnToPending hands an interrupted converting job back to the queue.
func (s *Store) ReturnToPending(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusConverting,
		`UPDATE jobs SET status = ?, progress = 0, updated_at = ? WHERE id = ? AND status = ?`,
		StatusPending, formatTime(now()), id, StatusConverting)
}

// ResetStuckConverting returns every converting job to pending. Called at the
// start of a run, when no other run can hold the lock.
func (s *Store) ResetStuckConverting(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, progress = 0, updated_at = ? WHERE status = ?`,
		StatusPending, formatTime(now()), StatusConverting)
	if err != nil {
		return 0, fmt.Errorf("reset converting jobs: %w", err)
	}
	return res.RowsAffected()
}

// Retry returns failed and review jobs to pending. With no ids every
// retryable job is reset.
func (s *Store) Retry(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE jobs SET status = ?, progress = 0, error_message = NULL, finished_at = NULL, updated_at = ?
        WHERE status IN (?, ?)`
	args := []any{StatusPending, formatTime(now()), StatusFailed, StatusReview}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry jobs: %w", err)
	}
	return res.RowsAffected()
}

// transition runs an UPDATE guarded by the expected current status and
// distinguishes a missing job from one in the wrong status.
func (s *Store) transition(ctx context.Context, id int64, from Status, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	if affected > 0 {
		return nil
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("job %d: expected status %s, found %s: %w", id, from, job.Status, ErrInvalidTransition)
}
