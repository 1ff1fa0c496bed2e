package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusReview     Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusConverting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsRetryable reports whether Retry may return a job in this status to pending.
func (s Status) IsRetryable() bool {
	return s == StatusFailed || s == StatusReview
}

// NewJob describes a chapter to enqueue.
type NewJob struct {
	SourcePath string
	Title      string
	AudioPath  string
	LRCPath    string
	Voice      string
}

// Job is a persisted chapter conversion.
type Job struct {
	ID           int64      `json:"id"`
	SourcePath   string     `json:"source_path"`
	Title        string     `json:"title"`
	AudioPath    string     `json:"audio_path"`
	LRCPath      string     `json:"lrc_path"`
	Voice        string     `json:"voice,omitempty"`
	Status       Status     `json:"status"`
	Progress     float64    `json:"progress"`
	Lines        int        `json:"lines"`
	Misses       int        `json:"misses"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SessionID    string     `json:"session_id,omitempty"`
	Attempts     int        `json:"attempts"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the last attempt ran, or zero if it has not finished.
func (j Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}
