package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelforge/internal/config"
)

func newTestService(t *testing.T, mutate func(*config.Notifications)) (*ntfyService, *[]*http.Request, *[]string) {
	t.Helper()
	var requests []*http.Request
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, r.Clone(context.Background()))
		bodies = append(bodies, string(body))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = true
	cfg.Notifications.Completed = true
	cfg.Notifications.PendingUpload = true
	cfg.Notifications.Errors = true
	if mutate != nil {
		mutate(&cfg.Notifications)
	}
	svc := NewService(&cfg).(*ntfyService)
	return svc, &requests, &bodies
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := NewService(&cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyJobFailed(context.Background(), 1, "topic", errors.New("x")); err != nil {
		t.Fatalf("noop service must not error: %v", err)
	}
}

func TestNotifyJobCompletedFormatsMessage(t *testing.T) {
	svc, requests, bodies := newTestService(t, nil)
	if err := svc.NotifyJobCompleted(context.Background(), 4, "My Video", "abc123"); err != nil {
		t.Fatalf("NotifyJobCompleted returned error: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	req := (*requests)[0]
	if req.Header.Get("Title") != "ReelForge - Video Published" {
		t.Fatalf("unexpected title %q", req.Header.Get("Title"))
	}
	if req.Header.Get("Priority") != "high" {
		t.Fatalf("completed notifications should be high priority")
	}
	body := (*bodies)[0]
	if body != "Published: My Video\nVideo: https://youtu.be/abc123" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestEventTogglesSuppressSends(t *testing.T) {
	svc, requests, _ := newTestService(t, func(n *config.Notifications) {
		n.Errors = false
	})
	if err := svc.NotifyJobFailed(context.Background(), 2, "topic", errors.New("boom")); err != nil {
		t.Fatalf("NotifyJobFailed returned error: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("disabled event must not send, got %d requests", len(*requests))
	}
}

func TestDedupWindowSuppressesRepeats(t *testing.T) {
	svc, requests, _ := newTestService(t, func(n *config.Notifications) {
		n.DedupWindowSeconds = 60
	})
	now := time.Unix(1000, 0)
	svc.now = func() time.Time { return now }

	for range 3 {
		if err := svc.NotifyJobQueued(context.Background(), 7, "same topic"); err != nil {
			t.Fatalf("NotifyJobQueued returned error: %v", err)
		}
	}
	if len(*requests) != 1 {
		t.Fatalf("repeats inside the window must be suppressed, got %d", len(*requests))
	}

	now = now.Add(61 * time.Second)
	if err := svc.NotifyJobQueued(context.Background(), 7, "same topic"); err != nil {
		t.Fatalf("NotifyJobQueued returned error: %v", err)
	}
	if len(*requests) != 2 {
		t.Fatalf("repeat outside the window must send, got %d", len(*requests))
	}
}
