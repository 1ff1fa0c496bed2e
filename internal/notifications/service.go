package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"narrator/internal/config"
)

const userAgent = "narrator/0.1"

// Event identifies a notification kind.
type Event string

const (
	EventRunStarted    Event = "run_started"
	EventRunCompleted  Event = "run_completed"
	EventChapterFailed Event = "chapter_failed"
	EventTest          Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("notifications: unknown event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunStarted:
		return message{
			title: "Narrator - Run Started",
			body:  fmt.Sprintf("Narrating %d pending chapters", intValue(payload, "pending")),
			tags:  []string{"narrator", "run", "started"},
		}, true
	case EventRunCompleted:
		completed := intValue(payload, "completed")
		failed := intValue(payload, "failed") + intValue(payload, "review")
		duration := durationValue(payload, "duration").Round(time.Second)
		if failed == 0 {
			return message{
				title: "Narrator - Run Complete",
				body:  fmt.Sprintf("%d chapters narrated in %s", completed, duration),
				tags:  []string{"narrator", "run", "completed"},
			}, true
		}
		return message{
			title: "Narrator - Run Complete (with errors)",
			body:  fmt.Sprintf("%d chapters narrated, %d failed in %s", completed, failed, duration),
			tags:  []string{"narrator", "run", "completed", "warning"},
		}, true
	case EventChapterFailed:
		body := fmt.Sprintf("Chapter failed: %s", stringValue(payload, "chapter"))
		if errText := stringValue(payload, "error"); errText != "" {
			body += "\n" + errText
		}
		return message{
			title:    "Narrator - Error",
			body:     body,
			tags:     []string{"narrator", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		body := stringValue(payload, "message")
		if body == "" {
			body = "Notification system test"
		}
		return message{
			title:    "Narrator - Test",
			body:     body,
			tags:     []string{"narrator", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func stringValue(payload Payload, key string) string {
	if v, ok := payload[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func intValue(payload Payload, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func durationValue(payload Payload, key string) time.Duration {
	if d, ok := payload[key].(time.Duration); ok && d > 0 {
		return d
	}
	return 0
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
