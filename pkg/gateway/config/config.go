// Package config loads gateway settings from the environment and an
// optional config file. Every key can be set as ORDERVOX_<SECTION>_<NAME>.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr                string
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	LogLevel string

	// CORS allowlist for the websocket upgrade. Empty disables the check.
	CORSAllowedOrigins map[string]struct{}

	TenantRef   string
	DefaultLang string

	// Live WebSocket mode (/v1/live).
	LiveMaxAudioFrameBytes     int
	LiveMaxJSONMessageBytes    int64
	LiveMaxAudioFPS            int
	LiveMaxAudioBytesPerSecond int64
	LiveInboundBurstSeconds    int
	LiveWSPingInterval         time.Duration
	LiveWSWriteTimeout         time.Duration
	LiveHeartbeatInterval      time.Duration
	LiveMaxSessionDuration     time.Duration
	LiveMaxSessions            int

	// Session liveness overrides. Zero keeps the core defaults.
	IdleTimeoutSec int
	MaxIdlePrompts int

	// Menu storage.
	PostgresDSN  string
	RedisAddr    string
	RedisDB      int
	MenuCacheTTL time.Duration

	// Telemetry.
	NATSURL          string
	TelemetrySubject string
	TelemetryTimeout time.Duration

	// Speech providers.
	GeminiAPIKey string
	STTModel     string
	TTSModel     string
	TTSVoice     string
}

func defaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_grace_period", 30*time.Second)
	v.SetDefault("server.cors_origins", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("tenant.ref", "default")
	v.SetDefault("tenant.default_lang", "en")

	v.SetDefault("live.max_audio_frame_bytes", 32*1024)
	v.SetDefault("live.max_json_message_bytes", 64*1024)
	v.SetDefault("live.max_audio_fps", 120)
	v.SetDefault("live.max_audio_bps", 96000)
	v.SetDefault("live.inbound_burst_seconds", 2)
	v.SetDefault("live.ws_ping_interval", 20*time.Second)
	v.SetDefault("live.ws_write_timeout", 5*time.Second)
	v.SetDefault("live.heartbeat_interval", 10*time.Second)
	v.SetDefault("live.max_session_duration", 30*time.Minute)
	v.SetDefault("live.max_sessions", 200)

	v.SetDefault("session.idle_timeout_sec", 0)
	v.SetDefault("session.max_idle_prompts", 0)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("menu.cache_ttl", 5*time.Minute)

	v.SetDefault("nats.url", "")
	v.SetDefault("telemetry.subject", "ordervox.telemetry.events")
	v.SetDefault("telemetry.timeout", 250*time.Millisecond)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.stt_model", "gemini-2.5-flash")
	v.SetDefault("gemini.tts_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("gemini.tts_voice", "Kore")
}

// Load reads config from the environment, plus configFile when non-empty.
func Load(configFile string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("ORDERVOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Addr:                       v.GetString("server.addr"),
		ReadHeaderTimeout:          v.GetDuration("server.read_header_timeout"),
		ReadTimeout:                v.GetDuration("server.read_timeout"),
		ShutdownGracePeriod:        v.GetDuration("server.shutdown_grace_period"),
		LogLevel:                   v.GetString("log.level"),
		CORSAllowedOrigins:         make(map[string]struct{}),
		TenantRef:                  v.GetString("tenant.ref"),
		DefaultLang:                strings.ToLower(v.GetString("tenant.default_lang")),
		LiveMaxAudioFrameBytes:     v.GetInt("live.max_audio_frame_bytes"),
		LiveMaxJSONMessageBytes:    v.GetInt64("live.max_json_message_bytes"),
		LiveMaxAudioFPS:            v.GetInt("live.max_audio_fps"),
		LiveMaxAudioBytesPerSecond: v.GetInt64("live.max_audio_bps"),
		LiveInboundBurstSeconds:    v.GetInt("live.inbound_burst_seconds"),
		LiveWSPingInterval:         v.GetDuration("live.ws_ping_interval"),
		LiveWSWriteTimeout:         v.GetDuration("live.ws_write_timeout"),
		LiveHeartbeatInterval:      v.GetDuration("live.heartbeat_interval"),
		LiveMaxSessionDuration:     v.GetDuration("live.max_session_duration"),
		LiveMaxSessions:            v.GetInt("live.max_sessions"),
		IdleTimeoutSec:             v.GetInt("session.idle_timeout_sec"),
		MaxIdlePrompts:             v.GetInt("session.max_idle_prompts"),
		PostgresDSN:                v.GetString("postgres.dsn"),
		RedisAddr:                  v.GetString("redis.addr"),
		RedisDB:                    v.GetInt("redis.db"),
		MenuCacheTTL:               v.GetDuration("menu.cache_ttl"),
		NATSURL:                    v.GetString("nats.url"),
		TelemetrySubject:           v.GetString("telemetry.subject"),
		TelemetryTimeout:           v.GetDuration("telemetry.timeout"),
		GeminiAPIKey:               v.GetString("gemini.api_key"),
		STTModel:                   v.GetString("gemini.stt_model"),
		TTSModel:                   v.GetString("gemini.tts_model"),
		TTSVoice:                   v.GetString("gemini.tts_voice"),
	}

	for _, origin := range splitCSV(v.GetString("server.cors_origins")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("server.read_header_timeout must be > 0")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("server.shutdown_grace_period must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug|info|warn|error")
	}
	if strings.TrimSpace(c.TenantRef) == "" {
		return fmt.Errorf("tenant.ref must not be empty")
	}
	switch c.DefaultLang {
	case "en", "nl", "tr":
	default:
		return fmt.Errorf("tenant.default_lang must be one of en|nl|tr")
	}
	if c.LiveMaxAudioFrameBytes <= 0 {
		return fmt.Errorf("live.max_audio_frame_bytes must be > 0")
	}
	if c.LiveMaxJSONMessageBytes <= 0 {
		return fmt.Errorf("live.max_json_message_bytes must be > 0")
	}
	if c.LiveMaxAudioFPS < 0 {
		return fmt.Errorf("live.max_audio_fps must be >= 0")
	}
	if c.LiveMaxAudioBytesPerSecond < 0 {
		return fmt.Errorf("live.max_audio_bps must be >= 0")
	}
	if c.LiveInboundBurstSeconds < 0 {
		return fmt.Errorf("live.inbound_burst_seconds must be >= 0")
	}
	if (c.LiveMaxAudioFPS > 0 || c.LiveMaxAudioBytesPerSecond > 0) && c.LiveInboundBurstSeconds < 1 {
		return fmt.Errorf("live.inbound_burst_seconds must be >= 1 when inbound audio limits are enabled")
	}
	if c.LiveWSPingInterval <= 0 {
		return fmt.Errorf("live.ws_ping_interval must be > 0")
	}
	if c.LiveWSWriteTimeout <= 0 {
		return fmt.Errorf("live.ws_write_timeout must be > 0")
	}
	if c.LiveHeartbeatInterval < 0 {
		return fmt.Errorf("live.heartbeat_interval must be >= 0")
	}
	if c.LiveMaxSessionDuration <= 0 {
		return fmt.Errorf("live.max_session_duration must be > 0")
	}
	if c.LiveMaxSessions < 0 {
		return fmt.Errorf("live.max_sessions must be >= 0")
	}
	if c.IdleTimeoutSec < 0 {
		return fmt.Errorf("session.idle_timeout_sec must be >= 0")
	}
	if c.MaxIdlePrompts < 0 {
		return fmt.Errorf("session.max_idle_prompts must be >= 0")
	}
	if c.MenuCacheTTL < 0 {
		return fmt.Errorf("menu.cache_ttl must be >= 0")
	}
	if c.TelemetryTimeout <= 0 {
		return fmt.Errorf("telemetry.timeout must be > 0")
	}
	if strings.TrimSpace(c.NATSURL) != "" && strings.TrimSpace(c.TelemetrySubject) == "" {
		return fmt.Errorf("telemetry.subject must not be empty when nats.url is set")
	}
	if strings.TrimSpace(c.STTModel) == "" {
		return fmt.Errorf("gemini.stt_model must not be empty")
	}
	if strings.TrimSpace(c.TTSModel) == "" {
		return fmt.Errorf("gemini.tts_model must not be empty")
	}
	if strings.TrimSpace(c.TTSVoice) == "" {
		return fmt.Errorf("gemini.tts_voice must not be empty")
	}
	return nil
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
