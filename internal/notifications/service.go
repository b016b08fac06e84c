package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"reelforge/internal/config"
)

const userAgent = "ReelForge-Go/0.1.0"

// Service defines the notification surface exposed to the worker.
type Service interface {
	NotifyJobQueued(ctx context.Context, jobID int64, topic string) error
	NotifyJobCompleted(ctx context.Context, jobID int64, title, videoID string) error
	NotifyPendingUpload(ctx context.Context, jobID int64, title string) error
	NotifyJobFailed(ctx context.Context, jobID int64, topic string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dedup := time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		settings: cfg.Notifications,
		dedup:    dedup,
		sent:     make(map[string]time.Time),
		now:      time.Now,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	settings config.Notifications
	dedup    time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, jobID int64, topic string) error {
	if !n.settings.Queue {
		return nil
	}
	return n.send(ctx, payload{
		title:   "ReelForge - Job Queued",
		message: fmt.Sprintf("Job %d queued: %s", jobID, strings.TrimSpace(topic)),
		tags:    []string{"reelforge", "queue"},
	})
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID int64, title, videoID string) error {
	if !n.settings.Completed {
		return nil
	}
	message := fmt.Sprintf("Published: %s", strings.TrimSpace(title))
	if videoID != "" {
		message = fmt.Sprintf("%s\nVideo: https://youtu.be/%s", message, videoID)
	}
	return n.send(ctx, payload{
		title:    "ReelForge - Video Published",
		message:  message,
		tags:     []string{"reelforge", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyPendingUpload(ctx context.Context, jobID int64, title string) error {
	if !n.settings.PendingUpload {
		return nil
	}
	return n.send(ctx, payload{
		title:   "ReelForge - Awaiting Credentials",
		message: fmt.Sprintf("Job %d finished but cannot upload: %s\nConfigure YouTube credentials to publish.", jobID, strings.TrimSpace(title)),
		tags:    []string{"reelforge", "pending"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID int64, topic string, cause error) error {
	if !n.settings.Errors {
		return nil
	}
	detail := "unknown"
	if cause != nil {
		detail = strings.TrimSpace(cause.Error())
	}
	return n.send(ctx, payload{
		title:    "ReelForge - Job Failed",
		message:  fmt.Sprintf("Job %d failed (%s): %s", jobID, strings.TrimSpace(topic), detail),
		tags:     []string{"reelforge", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "ReelForge - Test",
		message:  "Notification system test",
		tags:     []string{"reelforge", "test"},
		priority: "low",
	})
}

// send posts one notification, suppressing identical messages inside the
// dedup window.
func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if n.suppressed(data) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (n *ntfyService) suppressed(data payload) bool {
	if n.dedup <= 0 {
		return false
	}
	key := data.title + "\x00" + data.message
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.sent[key]; ok && now.Sub(last) < n.dedup {
		return true
	}
	n.sent[key] = now
	for k, at := range n.sent {
		if now.Sub(at) >= n.dedup {
			delete(n.sent, k)
		}
	}
	return false
}

type noopService struct{}

func (noopService) NotifyJobQueued(context.Context, int64, string) error            { return nil }
func (noopService) NotifyJobCompleted(context.Context, int64, string, string) error { return nil }
func (noopService) NotifyPendingUpload(context.Context, int64, string) error        { return nil }
func (noopService) NotifyJobFailed(context.Context, int64, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
