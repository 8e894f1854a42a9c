package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/config"
	"github.com/ekaya-inc/sqlite-mcp/pkg/metrics"
)

type fakePaths struct {
	path string
}

func (f fakePaths) Path() (string, bool) {
	return f.path, f.path != ""
}

func testConfig() *config.Config {
	return &config.Config{
		Version: "test-version",
		Env:     "test",
	}
}

func TestHealthHandler_Health_WithoutDefaultDatabase(t *testing.T) {
	handler := NewHealthHandler(testConfig(), fakePaths{}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", response.Status)
	}
	if response.Version != "test-version" {
		t.Errorf("expected version 'test-version', got '%s'", response.Version)
	}
	if response.Database == nil || response.Database.Configured {
		t.Errorf("expected unconfigured database, got %+v", response.Database)
	}
}

func TestHealthHandler_Health_WithDefaultDatabase(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	handler := NewHealthHandler(testConfig(), fakePaths{path: "/srv/data/shop.db?key=secret"}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !response.Database.Configured {
		t.Error("expected configured database")
	}
	if response.Database.Path != "/srv/data/shop.db" {
		t.Errorf("expected sanitized path, got %q", response.Database.Path)
	}
}

func TestHealthHandler_Health_NilPathProvider(t *testing.T) {
	handler := NewHealthHandler(testConfig(), nil, nil, nil)

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestHealthHandler_Ping(t *testing.T) {
	handler := NewHealthHandler(testConfig(), nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()

	handler.Ping(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response PingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", response.Status)
	}
	if response.Service != ServiceName {
		t.Errorf("expected service %q, got %q", ServiceName, response.Service)
	}
	if response.GoVersion != runtime.Version() {
		t.Errorf("expected go version %q, got %q", runtime.Version(), response.GoVersion)
	}
	if response.Environment != "test" {
		t.Errorf("expected environment 'test', got '%s'", response.Environment)
	}
	if response.Hostname == "" {
		t.Error("expected hostname to be set")
	}
}

func TestHealthHandler_RegisterRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetBuildInfo("test-version")

	handler := NewHealthHandler(testConfig(), nil, reg, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	for _, path := range []string{"/health", "/ping", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusOK, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "sqlite_mcp_build_info") {
		t.Errorf("expected build info metric in /metrics output, got:\n%s", rec.Body.String())
	}
}

func TestHealthHandler_RegisterRoutes_NoMetricsWithoutGatherer(t *testing.T) {
	handler := NewHealthHandler(testConfig(), nil, nil, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
