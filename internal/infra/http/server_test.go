package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Spok95/odonto/internal/infra/logger"
	"github.com/Spok95/odonto/internal/infra/metrics"
)

func TestHealth(t *testing.T) {
	h := NewHandler(Options{Log: logger.Discard()}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected request id header")
	}
}

func TestMetricsEndpointToggle(t *testing.T) {
	for _, expose := range []bool{true, false} {
		h := NewHandler(Options{ExposeMetrics: expose, Log: logger.Discard()}, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		want := http.StatusNotFound
		if expose {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Errorf("expose=%v: expected %d, got %d", expose, want, rec.Code)
		}
	}
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	h := NewHandler(Options{Log: logger.Discard()}, func(r *mux.Router) {
		r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Errorf("expected incoming request id kept, got ctx=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}
}

func TestAccessLogAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	h := NewHandler(Options{Log: logger.NewWithWriter("dev", &buf), Metrics: m}, func(r *mux.Router) {
		r.HandleFunc("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"route":"/items/{id}"`) {
		t.Errorf("expected route template in access log, got %s", buf.String())
	}
	if n, err := testutil.GatherAndCount(reg, "odonto_http_request_duration_seconds"); err != nil || n != 1 {
		t.Errorf("expected 1 histogram series, got %d", n)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(Options{CORSOrigins: []string{"http://app.local"}, Log: logger.Discard()}, func(r *mux.Router) {
		r.HandleFunc("/executions", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)
	})

	req := httptest.NewRequest(http.MethodOptions, "/executions", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.local" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}
