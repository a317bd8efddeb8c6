package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ordervox/ordervox/pkg/gateway/config"
	"github.com/ordervox/ordervox/pkg/gateway/lifecycle"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// ReadyHandler reports whether the gateway is configured to take calls.
// It flips to 503 once shutdown begins so load balancers stop routing here.
type ReadyHandler struct {
	Config    config.Config
	Lifecycle *lifecycle.Lifecycle
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK               bool     `json:"ok"`
		TenantRef        string   `json:"tenant_ref"`
		Lang             string   `json:"lang"`
		MenuSource       string   `json:"menu_source"`
		CacheEnabled     bool     `json:"cache_enabled"`
		TelemetryEnabled bool     `json:"telemetry_enabled"`
		Issues           []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	if h.Lifecycle.IsDraining() {
		issues = append(issues, "draining")
	}
	if strings.TrimSpace(h.Config.TenantRef) == "" {
		issues = append(issues, "tenant ref is empty")
	}
	switch h.Config.DefaultLang {
	case "en", "nl", "tr":
	default:
		issues = append(issues, "default lang must be one of en|nl|tr")
	}
	if h.Config.LiveMaxAudioFrameBytes <= 0 {
		issues = append(issues, "max audio frame bytes must be > 0")
	}
	if h.Config.LiveMaxJSONMessageBytes <= 0 {
		issues = append(issues, "max json message bytes must be > 0")
	}
	if h.Config.LiveMaxSessionDuration <= 0 {
		issues = append(issues, "max session duration must be > 0")
	}
	if strings.TrimSpace(h.Config.GeminiAPIKey) == "" {
		issues = append(issues, "gemini api key is not configured")
	}

	menuSource := "static"
	if strings.TrimSpace(h.Config.PostgresDSN) != "" {
		menuSource = "postgres"
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
		if h.Lifecycle.IsDraining() {
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:               ok,
		TenantRef:        h.Config.TenantRef,
		Lang:             h.Config.DefaultLang,
		MenuSource:       menuSource,
		CacheEnabled:     strings.TrimSpace(h.Config.RedisAddr) != "",
		TelemetryEnabled: strings.TrimSpace(h.Config.NATSURL) != "",
		Issues:           issues,
	})
}
