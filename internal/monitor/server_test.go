package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/jobstore"
	"reelforge/internal/logging"
	"reelforge/internal/metrics"
	"reelforge/internal/queue"
	"reelforge/internal/stage"
	"reelforge/internal/testsupport"
)

type recordingPublisher struct {
	envelopes []queue.Envelope
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, env queue.Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.envelopes = append(p.envelopes, env)
	return nil
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *jobstore.Store, *recordingPublisher) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	publisher := &recordingPublisher{}
	health := func(ctx context.Context) []stage.Health {
		return []stage.Health{stage.Healthy("script")}
	}
	server := NewServer(cfg, store, publisher, health, metrics.New(), logging.NewNop())
	return server, store, publisher
}

func TestHealthEndpointReportsJobCounts(t *testing.T) {
	server, store, _ := newTestServer(t, nil)
	if _, err := store.NewJob(context.Background(), jobstore.NewJobRequest{Topic: "t"}); err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status string `json:"status"`
		Jobs   struct {
			Total  int `json:"Total"`
			Queued int `json:"Queued"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" || body.Jobs.Total != 1 || body.Jobs.Queued != 1 {
		t.Fatalf("unexpected health body %s", rec.Body.String())
	}
}

func TestHealthEndpointDegradesOnStageFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	health := func(ctx context.Context) []stage.Health {
		return []stage.Health{
			stage.Healthy("script"),
			stage.Unhealthy("narration", "no provider configured"),
		}
	}
	server := NewServer(cfg, store, &recordingPublisher{}, health, metrics.New(), logging.NewNop())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", body.Status)
	}
}

func TestSubmitEndpointPublisherFailure(t *testing.T) {
	server, store, publisher := newTestServer(t, nil)
	publisher.err = errors.New("broker unreachable")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader([]byte(`{"topic":"t"}`)))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}

	jobs, err := store.List(context.Background())
	if err != nil || len(jobs) != 1 {
		t.Fatalf("expected one stored job, got %d (%v)", len(jobs), err)
	}
	if jobs[0].Status != jobstore.StatusFailed {
		t.Fatalf("job should be failed after publish error, got %s", jobs[0].Status)
	}
}

func TestSubmitEndpointStoresAndPublishes(t *testing.T) {
	server, store, publisher := newTestServer(t, nil)

	payload := []byte(`{"topic":"ports explained","length_seconds":90,"publish":true}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		JobID  int64  `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != "queued" || result.JobID == 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(publisher.envelopes) != 1 || publisher.envelopes[0].JobID != result.JobID {
		t.Fatalf("envelope not published: %+v", publisher.envelopes)
	}
	job, err := store.GetByID(context.Background(), result.JobID)
	if err != nil || job == nil {
		t.Fatalf("job not stored: %v", err)
	}
	if !job.Publish || job.LengthSeconds != 90 {
		t.Fatalf("job lost fields: %+v", job)
	}
}

func TestSubmitEndpointRequiresTopic(t *testing.T) {
	server, _, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader([]byte(`{"niche":"tech"}`)))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPIKeyGuardsJobRoutes(t *testing.T) {
	server, store, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Monitor.APIKey = "secret"
	})
	job, err := store.NewJob(context.Background(), jobstore.NewJobRequest{Topic: "t"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+strconv.FormatInt(job.ID, 10), nil)
	req.Header.Set("X-API-Key", "secret")
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d: %s", rec.Code, rec.Body.String())
	}

	// health stays open for probes
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health must not require a key, got %d", rec.Code)
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	server, store, _ := newTestServer(t, nil)
	ctx := context.Background()
	if _, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "queued one"}); err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	done, err := store.NewJob(ctx, jobstore.NewJobRequest{Topic: "done one"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	done.Status = jobstore.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body struct {
		Jobs []struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(body.Jobs) != 1 || body.Jobs[0].ID != done.ID {
		t.Fatalf("filter failed: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body.Jobs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode limited list: %v", err)
	}
	if len(body.Jobs) != 1 {
		t.Fatalf("limit ignored: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	server, _, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
