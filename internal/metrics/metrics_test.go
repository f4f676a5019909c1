package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentCountsRequests(t *testing.T) {
	m := New()
	handler := m.Instrument("primary", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("primary", http.MethodGet, "404")); got != 3 {
		t.Fatalf("expected 3 requests, got %v", got)
	}
}

func TestInstrumentDefaultsToOK(t *testing.T) {
	m := New()
	handler := m.Instrument("healthcheck", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("healthcheck", http.MethodGet, "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestMarkListenerUp(t *testing.T) {
	m := New()
	m.MarkListenerUp("primary")

	if got := testutil.ToFloat64(m.listenerUp.WithLabelValues("primary")); got != 1 {
		t.Fatalf("expected listener_up 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.listenerUp.WithLabelValues("healthcheck")); got != 0 {
		t.Fatalf("expected listener_up 0 for unmarked listener, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.MarkListenerUp("primary")

	rec := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `persistent_data_listener_up{listener="primary"} 1`) {
		t.Fatalf("expected listener_up series in output, got:\n%s", rec.Body.String())
	}
}
