package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "zaplens/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMountProfiler(t *testing.T) {
	off := phttp.AdaptChi(chi.NewRouter())
	phttp.MountProfiler(off, "/debug", false)
	rec := httptest.NewRecorder()
	off.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled profiler should 404, got %d", rec.Code)
	}

	on := phttp.AdaptChi(chi.NewRouter())
	phttp.MountProfiler(on, "/debug", true)
	rec = httptest.NewRecorder()
	on.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("enabled profiler status %d", rec.Code)
	}
}

func TestMountMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "zaplens_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	r := phttp.AdaptChi(chi.NewRouter())
	phttp.MountMetrics(r, "/metrics", true, reg)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "zaplens_test_total 1") {
		t.Fatalf("metrics scrape mismatch: %d %q", rec.Code, rec.Body.String())
	}
}
