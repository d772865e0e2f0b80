package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareMintsUUIDTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	traceID := rr.Header().Get(traceHeader)
	if _, err := uuid.Parse(traceID); err != nil {
		t.Fatalf("generated trace id %q is not a uuid: %v", traceID, err)
	}
}

func TestMetricsRouteCollapsesSessionIDs(t *testing.T) {
	cases := map[string]string{
		"/v1/health":                       "/v1/health",
		"/v1/sessions":                     "/v1/sessions",
		"/v1/sessions/7f3c2a":              "/v1/sessions/{session}",
		"/v1/sessions/7f3c2a/messages":     "/v1/sessions/{session}/messages",
		"/v1/sessions/" + uuid.NewString(): "/v1/sessions/{session}",
		"/v1/sessions/abc/schema":          "/v1/sessions/{session}/schema",
	}
	for path, want := range cases {
		if got := metricsRoute(path); got != want {
			t.Fatalf("metricsRoute(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLoggingMiddlewareRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(testConfig(), &buf)

	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("four"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if record["status"] != float64(http.StatusAccepted) {
		t.Fatalf("status = %v", record["status"])
	}
	if record["bytes"] != float64(4) {
		t.Fatalf("bytes = %v", record["bytes"])
	}
	if record["path"] != "/v1/sessions" {
		t.Fatalf("path = %v", record["path"])
	}
}
