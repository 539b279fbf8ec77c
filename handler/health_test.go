/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Root/Health response-shape and request-counter tests.
Root Cause:  Sprint task — health endpoint coverage.
Suitability: L2 for standard handler tests.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRootShape(t *testing.T) {
	h := NewHealthHandler(8000)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	h.Root(rw, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode root response: %v", err)
	}
	if body["service"] != "sentry-gateway" {
		t.Fatalf("expected service field, got %v", body["service"])
	}
	if body["version"] != serviceVersion {
		t.Fatalf("expected version %q, got %v", serviceVersion, body["version"])
	}
	if body["status"] != "running" {
		t.Fatalf("expected status=running, got %v", body["status"])
	}
	if body["port"] != float64(8000) {
		t.Fatalf("expected port=8000, got %v", body["port"])
	}
}

func TestHealthShapeAndCounter(t *testing.T) {
	h := NewHealthHandler(8000)
	before := RequestCount.Load()
	RequestCount.Add(1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rw := httptest.NewRecorder()
	h.Health(rw, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("expected status=healthy, got %v", body["status"])
	}
	if _, ok := body["timestamp"]; !ok {
		t.Fatal("expected timestamp field")
	}
	if int64(body["request_count"].(float64)) != before+1 {
		t.Fatalf("expected request_count %d, got %v", before+1, body["request_count"])
	}
}
