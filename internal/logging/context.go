package logging

import (
	"context"
	"log/slog"

	"narrator/internal/services"
)

// Field keys shared by every narrator log line.
const (
	FieldComponent = "component"
	FieldJobID     = "job_id"
	FieldChapter   = "chapter"
	FieldSessionID = "session_id"
	// FieldEventType classifies a line for filtering, e.g. "reference_miss".
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what a warning costs the listener.
	FieldImpact = "impact"
)

// ContextFields turns the work scope carried by ctx into log attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFrom(ctx)
	var fields []slog.Attr
	if scope.SessionID != "" {
		fields = append(fields, slog.String(FieldSessionID, scope.SessionID))
	}
	if scope.JobID != 0 {
		fields = append(fields, slog.Int64(FieldJobID, scope.JobID))
	}
	if scope.Chapter != "" {
		fields = append(fields, slog.String(FieldChapter, scope.Chapter))
	}
	return fields
}

// WithContext returns logger tagged with the scope carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
