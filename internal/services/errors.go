package services

import (
	"errors"
	"strings"

	"narrator/internal/queue"
)

// Failure kinds. Every *Error carries exactly one of them.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Error is a classified failure raised by a narrator component.
type Error struct {
	Kind      error
	Component string
	Operation string
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	parts := 0
	for _, part := range []string{e.Component, e.Operation, e.Detail} {
		if part == "" {
			continue
		}
		if parts > 0 {
			b.WriteString(": ")
		}
		b.WriteString(part)
		parts++
	}
	if parts == 0 {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap classifies err under kind, recording where it happened. A nil kind
// means ErrTransient.
func Wrap(kind error, component, operation, detail string, err error) error {
	if kind == nil {
		kind = ErrTransient
	}
	return &Error{
		Kind:      kind,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Detail:    strings.TrimSpace(detail),
		Err:       err,
	}
}

// FailureStatus maps a conversion error to the job status the workflow
// should persist. Problems with the input itself need a human; everything
// else may succeed on retry.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return queue.StatusReview
	default:
		return queue.StatusFailed
	}
}

// Hint suggests what an operator should check for err.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "fix the chapter text, then run 'narrator queue retry'"
	case errors.Is(err, ErrConfiguration):
		return "check the output paths in config.toml, then run 'narrator queue retry'"
	case errors.Is(err, ErrNotFound):
		return "the chapter file is missing; re-add it or remove the job"
	case errors.Is(err, ErrTimeout):
		return "raise synth.timeout_seconds or split the chapter, then retry"
	case errors.Is(err, ErrExternalTool):
		return "run the synthesizer by hand to see its output ('narrator status' checks it is installed)"
	default:
		return "run 'narrator queue retry' to try again"
	}
}
