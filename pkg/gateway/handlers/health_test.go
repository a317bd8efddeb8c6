package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ordervox/ordervox/pkg/gateway/config"
)

func readyConfig() config.Config {
	return config.Config{
		TenantRef:               "snackbar",
		DefaultLang:             "en",
		LiveMaxAudioFrameBytes:  32 * 1024,
		LiveMaxJSONMessageBytes: 64 * 1024,
		LiveMaxSessionDuration:  30 * time.Minute,
		GeminiAPIKey:            "test-key",
	}
}

func TestHealth_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Body.String() != "ok\n" {
		t.Fatalf("body=%q", rr.Body.String())
	}
}

func TestReady_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	ReadyHandler{Config: readyConfig()}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	var resp struct {
		OK         bool     `json:"ok"`
		MenuSource string   `json:"menu_source"`
		Issues     []string `json:"issues"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || len(resp.Issues) != 0 {
		t.Fatalf("expected ready, got %+v", resp)
	}
	if resp.MenuSource != "static" {
		t.Fatalf("menu_source=%q", resp.MenuSource)
	}
}

func TestReady_ReportsIssues(t *testing.T) {
	cfg := readyConfig()
	cfg.GeminiAPIKey = ""
	cfg.DefaultLang = "xx"

	rr := httptest.NewRecorder()
	ReadyHandler{Config: cfg}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OK || len(resp.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", resp)
	}
}

func TestReady_PostgresSource(t *testing.T) {
	cfg := readyConfig()
	cfg.PostgresDSN = "postgres://localhost/ordervox"

	rr := httptest.NewRecorder()
	ReadyHandler{Config: cfg}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var resp struct {
		MenuSource string `json:"menu_source"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MenuSource != "postgres" {
		t.Fatalf("menu_source=%q", resp.MenuSource)
	}
}

func TestNotFound_JSONEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFoundHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	var env errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("code=%q", env.Error.Code)
	}
}
