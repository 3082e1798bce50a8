package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestMetricsHandler_ServesPrometheusExposition(t *testing.T) {
	m := &MetricsRegistry{}
	// Exercise the handler without re-registering globally-registered
	// collectors from another test in this package.
	h := m.Handler()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected non-empty metrics body")
	}
}

func TestRouteTemplate_UnmatchedRequestReturnsPlaceholder(t *testing.T) {
	req := httptest.NewRequest("GET", "/nope", nil)
	if got := routeTemplate(req); got != "unmatched" {
		t.Fatalf("expected \"unmatched\" for a request with no mux route context, got %q", got)
	}
}
