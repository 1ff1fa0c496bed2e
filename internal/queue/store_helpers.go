package queue

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `id, source_path, title, audio_path, lrc_path, voice, status, progress,
    line_count, miss_count, error_message, session_id, attempts,
    created_at, updated_at, started_at, finished_at`

// now is replaced in tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job        Job
		status     string
		voice      sql.NullString
		errorMsg   sql.NullString
		sessionID  sql.NullString
		createdAt  string
		updatedAt  string
		startedAt  sql.NullString
		finishedAt sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourcePath,
		&job.Title,
		&job.AudioPath,
		&job.LRCPath,
		&voice,
		&status,
		&job.Progress,
		&job.Lines,
		&job.Misses,
		&errorMsg,
		&sessionID,
		&job.Attempts,
		&createdAt,
		&updatedAt,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.Voice = voice.String
	job.ErrorMessage = errorMsg.String
	job.SessionID = sessionID.String

	var err error
	if job.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if job.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if job.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &job, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func parseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	return args
}
