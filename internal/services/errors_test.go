package services_test

import (
	"errors"
	"strings"
	"testing"

	"narrator/internal/queue"
	"narrator/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "convert", "synthesize", "command failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected kind to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	want := "external tool error: convert: synthesize: command failed: boom"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	var classified *services.Error
	if !errors.As(err, &classified) || classified.Component != "convert" {
		t.Fatalf("errors.As = %+v", classified)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient kind by default, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNestedWrapKeepsBothKinds(t *testing.T) {
	inner := services.Wrap(services.ErrValidation, "workflow", "read chapter", "", errors.New("bad bytes"))
	outer := services.Wrap(services.ErrTimeout, "workflow", "convert", "", inner)
	if !errors.Is(outer, services.ErrTimeout) || !errors.Is(outer, services.ErrValidation) {
		t.Fatalf("expected both kinds reachable from %v", outer)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want queue.Status
	}{
		{"validation", services.Wrap(services.ErrValidation, "chapters", "read", "unknown encoding", nil), queue.StatusReview},
		{"configuration", services.Wrap(services.ErrConfiguration, "convert", "open audio", "", nil), queue.StatusReview},
		{"not found", services.Wrap(services.ErrNotFound, "workflow", "read", "", nil), queue.StatusReview},
		{"tool", services.Wrap(services.ErrExternalTool, "convert", "synthesize", "exit 1", errors.New("io")), queue.StatusFailed},
		{"timeout", services.Wrap(services.ErrTimeout, "workflow", "convert", "", nil), queue.StatusFailed},
		{"plain", errors.New("disk full"), queue.StatusFailed},
		{"nil", nil, queue.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.FailureStatus(tt.err); got != tt.want {
				t.Fatalf("FailureStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHint(t *testing.T) {
	timeout := services.Wrap(services.ErrTimeout, "workflow", "convert", "", nil)
	if !strings.Contains(services.Hint(timeout), "timeout_seconds") {
		t.Fatalf("timeout hint = %q", services.Hint(timeout))
	}
	if !strings.Contains(services.Hint(errors.New("x")), "queue retry") {
		t.Fatalf("default hint = %q", services.Hint(errors.New("x")))
	}
}
