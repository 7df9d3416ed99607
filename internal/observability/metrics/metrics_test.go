package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestHTTPServerMetricsRecordsWorkflow(t *testing.T) {
	m := NewHTTPServerMetrics("web", func() float64 { return 3 })
	m.ObserveUpload("succeeded")
	m.ObserveProcessing(domain.InputKindText, "rejected", 2*time.Second)
	m.ObservePreview("succeeded", 5, time.Second)
	m.ObserveBreaker("backend_upload", "closed", "open")

	handler := m.Middleware("web", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/session/alerts/123", nil))

	out := scrape(t, m.Handler())
	for _, want := range []string{
		`docstudio_workflow_uploads_total{service="web",status="succeeded"} 1`,
		`docstudio_workflow_processing_total{service="web",source="text",status="rejected"} 1`,
		`docstudio_preview_renders_total{service="web",status="succeeded"} 1`,
		`docstudio_resilience_breaker_transitions_total{operation="backend_upload",service="web",to="open"} 1`,
		`docstudio_session_active{service="web"} 3`,
		`path="/api/session/alerts/{id}"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}

func TestWorkerMetricsRecordsPrerender(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartPrerender()
	m.FinishPrerender("worker", "cached", 10*time.Millisecond)
	m.ObserveQueueLag("worker", -time.Second)

	out := scrape(t, m.Handler())
	if !strings.Contains(out, `docstudio_worker_prerender_total{service="worker",status="cached"} 1`) {
		t.Fatalf("unexpected metrics output:\n%s", out)
	}
	if !strings.Contains(out, `docstudio_worker_prerender_in_flight{service="worker"} 0`) {
		t.Fatalf("in-flight gauge must return to zero")
	}
}
