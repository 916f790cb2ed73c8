package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthDegradedWithoutEngineOrDispatcher(t *testing.T) {
	SetGlobalEngine(nil)
	SetGlobalDispatcher(nil)
	SetGlobalAlertQueue(nil)

	router := gin.New()
	router.GET("/api/v1/health", Health)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded", resp.Status)
	}
	if resp.Engine.Status != "not_initialized" {
		t.Fatalf("Engine.Status = %q, want not_initialized", resp.Engine.Status)
	}
}

func TestHealthEngineRunningWithoutDispatcherIsDegraded(t *testing.T) {
	e := newTestGenerationEngine(t)
	SetGlobalEngine(e)
	SetGlobalDispatcher(nil)
	defer SetGlobalEngine(nil)

	router := gin.New()
	router.GET("/api/v1/health", Health)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Engine.Status != "running" {
		t.Fatalf("Engine.Status = %q, want running", resp.Engine.Status)
	}
	// Dispatcher still not configured, so overall status stays degraded.
	if resp.Status != "degraded" {
		t.Fatalf("Status = %q, want degraded (dispatcher not configured)", resp.Status)
	}
}

func TestToInt64HandlesKnownTypes(t *testing.T) {
	if got := toInt64(int64(5)); got != 5 {
		t.Fatalf("toInt64(int64(5)) = %d, want 5", got)
	}
	if got := toInt64(5); got != 5 {
		t.Fatalf("toInt64(5) = %d, want 5", got)
	}
	if got := toInt64("not a number"); got != 0 {
		t.Fatalf("toInt64(string) = %d, want 0", got)
	}
}
