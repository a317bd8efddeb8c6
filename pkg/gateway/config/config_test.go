package config

import (
	"strings"
	"testing"
	"time"
)

var gatewayEnvKeys = []string{
	"ORDERVOX_SERVER_ADDR",
	"ORDERVOX_SERVER_READ_HEADER_TIMEOUT",
	"ORDERVOX_SERVER_READ_TIMEOUT",
	"ORDERVOX_SERVER_SHUTDOWN_GRACE_PERIOD",
	"ORDERVOX_SERVER_CORS_ORIGINS",
	"ORDERVOX_LOG_LEVEL",
	"ORDERVOX_TENANT_REF",
	"ORDERVOX_TENANT_DEFAULT_LANG",
	"ORDERVOX_LIVE_MAX_AUDIO_FRAME_BYTES",
	"ORDERVOX_LIVE_MAX_JSON_MESSAGE_BYTES",
	"ORDERVOX_LIVE_MAX_AUDIO_FPS",
	"ORDERVOX_LIVE_MAX_AUDIO_BPS",
	"ORDERVOX_LIVE_INBOUND_BURST_SECONDS",
	"ORDERVOX_LIVE_WS_PING_INTERVAL",
	"ORDERVOX_LIVE_WS_WRITE_TIMEOUT",
	"ORDERVOX_LIVE_HEARTBEAT_INTERVAL",
	"ORDERVOX_LIVE_MAX_SESSION_DURATION",
	"ORDERVOX_LIVE_MAX_SESSIONS",
	"ORDERVOX_SESSION_IDLE_TIMEOUT_SEC",
	"ORDERVOX_SESSION_MAX_IDLE_PROMPTS",
	"ORDERVOX_POSTGRES_DSN",
	"ORDERVOX_REDIS_ADDR",
	"ORDERVOX_REDIS_DB",
	"ORDERVOX_MENU_CACHE_TTL",
	"ORDERVOX_NATS_URL",
	"ORDERVOX_TELEMETRY_SUBJECT",
	"ORDERVOX_TELEMETRY_TIMEOUT",
	"ORDERVOX_GEMINI_API_KEY",
	"ORDERVOX_GEMINI_STT_MODEL",
	"ORDERVOX_GEMINI_TTS_MODEL",
	"ORDERVOX_GEMINI_TTS_VOICE",
}

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range gatewayEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearGatewayEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.ReadHeaderTimeout != 10*time.Second {
		t.Fatalf("ReadHeaderTimeout = %v, want 10s", cfg.ReadHeaderTimeout)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("ReadTimeout = %v, want 30s", cfg.ReadTimeout)
	}
	if cfg.ShutdownGracePeriod != 30*time.Second {
		t.Fatalf("ShutdownGracePeriod = %v, want 30s", cfg.ShutdownGracePeriod)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.TenantRef != "default" || cfg.DefaultLang != "en" {
		t.Fatalf("tenant = %q/%q", cfg.TenantRef, cfg.DefaultLang)
	}
	if cfg.LiveMaxAudioFrameBytes != 32*1024 {
		t.Fatalf("LiveMaxAudioFrameBytes = %d", cfg.LiveMaxAudioFrameBytes)
	}
	if cfg.LiveMaxJSONMessageBytes != 64*1024 {
		t.Fatalf("LiveMaxJSONMessageBytes = %d", cfg.LiveMaxJSONMessageBytes)
	}
	if cfg.LiveMaxAudioFPS != 120 || cfg.LiveMaxAudioBytesPerSecond != 96000 || cfg.LiveInboundBurstSeconds != 2 {
		t.Fatalf("inbound limits mismatch: %d/%d/%d", cfg.LiveMaxAudioFPS, cfg.LiveMaxAudioBytesPerSecond, cfg.LiveInboundBurstSeconds)
	}
	if cfg.LiveWSPingInterval != 20*time.Second || cfg.LiveWSWriteTimeout != 5*time.Second {
		t.Fatalf("ws timing mismatch: %v/%v", cfg.LiveWSPingInterval, cfg.LiveWSWriteTimeout)
	}
	if cfg.LiveHeartbeatInterval != 10*time.Second {
		t.Fatalf("LiveHeartbeatInterval = %v, want 10s", cfg.LiveHeartbeatInterval)
	}
	if cfg.LiveMaxSessionDuration != 30*time.Minute {
		t.Fatalf("LiveMaxSessionDuration = %v, want 30m", cfg.LiveMaxSessionDuration)
	}
	if cfg.LiveMaxSessions != 200 {
		t.Fatalf("LiveMaxSessions = %d, want 200", cfg.LiveMaxSessions)
	}
	if cfg.MenuCacheTTL != 5*time.Minute {
		t.Fatalf("MenuCacheTTL = %v, want 5m", cfg.MenuCacheTTL)
	}
	if cfg.TelemetrySubject != "ordervox.telemetry.events" {
		t.Fatalf("TelemetrySubject = %q", cfg.TelemetrySubject)
	}
	if cfg.TelemetryTimeout != 250*time.Millisecond {
		t.Fatalf("TelemetryTimeout = %v, want 250ms", cfg.TelemetryTimeout)
	}
	if cfg.STTModel == "" || cfg.TTSModel == "" || cfg.TTSVoice == "" {
		t.Fatalf("speech defaults missing: %q/%q/%q", cfg.STTModel, cfg.TTSModel, cfg.TTSVoice)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("ORDERVOX_SERVER_ADDR", ":9090")
	t.Setenv("ORDERVOX_LOG_LEVEL", "debug")
	t.Setenv("ORDERVOX_TENANT_REF", "snackbar-west")
	t.Setenv("ORDERVOX_TENANT_DEFAULT_LANG", "NL")
	t.Setenv("ORDERVOX_SERVER_CORS_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("ORDERVOX_LIVE_MAX_AUDIO_FRAME_BYTES", "1234")
	t.Setenv("ORDERVOX_LIVE_MAX_AUDIO_FPS", "55")
	t.Setenv("ORDERVOX_LIVE_INBOUND_BURST_SECONDS", "3")
	t.Setenv("ORDERVOX_LIVE_MAX_SESSIONS", "7")
	t.Setenv("ORDERVOX_SESSION_IDLE_TIMEOUT_SEC", "40")
	t.Setenv("ORDERVOX_POSTGRES_DSN", "postgres://x:y@localhost:5432/ordervox")
	t.Setenv("ORDERVOX_REDIS_ADDR", "localhost:6379")
	t.Setenv("ORDERVOX_MENU_CACHE_TTL", "90s")
	t.Setenv("ORDERVOX_NATS_URL", "nats://localhost:4222")
	t.Setenv("ORDERVOX_GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9090" || cfg.LogLevel != "debug" {
		t.Fatalf("Addr/LogLevel = %q/%q", cfg.Addr, cfg.LogLevel)
	}
	if cfg.TenantRef != "snackbar-west" || cfg.DefaultLang != "nl" {
		t.Fatalf("tenant = %q/%q", cfg.TenantRef, cfg.DefaultLang)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins len=%d, want 2", len(cfg.CORSAllowedOrigins))
	}
	if _, ok := cfg.CORSAllowedOrigins["https://b.example"]; !ok {
		t.Fatal("missing https://b.example")
	}
	if cfg.LiveMaxAudioFrameBytes != 1234 || cfg.LiveMaxAudioFPS != 55 || cfg.LiveInboundBurstSeconds != 3 {
		t.Fatalf("live limits mismatch: %d/%d/%d", cfg.LiveMaxAudioFrameBytes, cfg.LiveMaxAudioFPS, cfg.LiveInboundBurstSeconds)
	}
	if cfg.LiveMaxSessions != 7 {
		t.Fatalf("LiveMaxSessions = %d, want 7", cfg.LiveMaxSessions)
	}
	if cfg.IdleTimeoutSec != 40 {
		t.Fatalf("IdleTimeoutSec = %d, want 40", cfg.IdleTimeoutSec)
	}
	if cfg.PostgresDSN == "" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("storage config mismatch: %q/%q", cfg.PostgresDSN, cfg.RedisAddr)
	}
	if cfg.MenuCacheTTL != 90*time.Second {
		t.Fatalf("MenuCacheTTL = %v, want 90s", cfg.MenuCacheTTL)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Fatalf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Fatalf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name      string
		env       map[string]string
		errSubstr string
	}{
		{
			name:      "invalid log level",
			env:       map[string]string{"ORDERVOX_LOG_LEVEL": "loud"},
			errSubstr: "log.level",
		},
		{
			name:      "invalid default lang",
			env:       map[string]string{"ORDERVOX_TENANT_DEFAULT_LANG": "de"},
			errSubstr: "tenant.default_lang",
		},
		{
			name:      "invalid frame bytes",
			env:       map[string]string{"ORDERVOX_LIVE_MAX_AUDIO_FRAME_BYTES": "0"},
			errSubstr: "live.max_audio_frame_bytes",
		},
		{
			name:      "negative fps",
			env:       map[string]string{"ORDERVOX_LIVE_MAX_AUDIO_FPS": "-1"},
			errSubstr: "live.max_audio_fps",
		},
		{
			name: "burst required with limits",
			env: map[string]string{
				"ORDERVOX_LIVE_MAX_AUDIO_FPS":         "10",
				"ORDERVOX_LIVE_INBOUND_BURST_SECONDS": "0",
			},
			errSubstr: "live.inbound_burst_seconds",
		},
		{
			name:      "invalid session duration",
			env:       map[string]string{"ORDERVOX_LIVE_MAX_SESSION_DURATION": "0s"},
			errSubstr: "live.max_session_duration",
		},
		{
			name: "telemetry subject required with nats",
			env: map[string]string{
				"ORDERVOX_NATS_URL":          "nats://localhost:4222",
				"ORDERVOX_TELEMETRY_SUBJECT": " ",
			},
			errSubstr: "telemetry.subject",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearGatewayEnv(t)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errSubstr) {
				t.Fatalf("error = %v, expected substring %q", err, tc.errSubstr)
			}
		})
	}
}
