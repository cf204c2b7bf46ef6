package util

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestLogRecordsStatusAndRoute(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	h := WithRequestLog("console", func(*http.Request) string { return "/api/colors/{id}" },
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/colors/c9", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["level"] != "WARN" {
		t.Fatalf("expected WARN for 404, got %v", entry["level"])
	}
	if entry["route"] != "/api/colors/{id}" || entry["path"] != "/api/colors/c9" {
		t.Fatalf("unexpected route/path: %v %v", entry["route"], entry["path"])
	}
	if entry["status"] != float64(http.StatusNotFound) || entry["bytes"] != float64(21) {
		t.Fatalf("unexpected status/bytes: %v %v", entry["status"], entry["bytes"])
	}
}

func TestWithRequestLogImplicitOK(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	h := WithRequestLog("", nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["status"] != float64(http.StatusOK) || entry["service"] != "unknown" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["route"]; ok {
		t.Fatalf("route should be omitted without a mapper")
	}
}
