package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposeJobCounters(t *testing.T) {
	m := New()
	m.JobStarted()
	m.JobFinished("completed")
	m.ObserveStage("script", 1.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`reelforge_jobs_processed_total{status="completed"} 1`,
		`reelforge_jobs_in_flight 0`,
		`reelforge_stage_duration_seconds_count{stage="script"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.JobStarted()
	m.JobFinished("failed")
	m.ObserveStage("compose", 1.0)
}
