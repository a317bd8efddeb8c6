package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ordervox/ordervox/pkg/core/dialog"
	"github.com/ordervox/ordervox/pkg/core/live"
	"github.com/ordervox/ordervox/pkg/core/menu"
	"github.com/ordervox/ordervox/pkg/gateway/config"
	"github.com/ordervox/ordervox/pkg/gateway/lifecycle"
	"github.com/ordervox/ordervox/pkg/gateway/live/protocol"
	"github.com/ordervox/ordervox/pkg/gateway/live/session"
	"github.com/ordervox/ordervox/pkg/gateway/live/sessions"
	"github.com/ordervox/ordervox/pkg/gateway/menustore"
	"github.com/ordervox/ordervox/pkg/gateway/metrics"
	"github.com/ordervox/ordervox/pkg/gateway/mw"
	"github.com/ordervox/ordervox/pkg/gateway/telemetry"
)

// LiveHandler upgrades /v1/live requests and runs one call per socket.
type LiveHandler struct {
	Config    config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Telemetry telemetry.Publisher
	Menus     *menustore.Store
	Tracker   *sessions.Tracker
	Lifecycle *lifecycle.Lifecycle

	STT  live.STTClient
	TTS  live.TTSClient
	Chat dialog.ChatClient
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if h.Lifecycle.IsDraining() {
		writeErrorJSON(w, r, http.StatusServiceUnavailable, "draining", "gateway is shutting down")
		return
	}
	if !h.originAllowed(r) {
		writeErrorJSON(w, r, http.StatusForbidden, "forbidden", "origin is not allowed")
		return
	}

	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reqID, _ := mw.RequestIDFrom(r.Context())

	// A failed menu load must not refuse the call. The session opens with
	// an empty catalogue and the agent path carries the conversation.
	snap, err := h.Menus.Snapshot(r.Context(), h.Config.TenantRef, h.Config.DefaultLang)
	if err != nil {
		logger.Warn("menu load failed, continuing without item catalogue",
			zap.String("request_id", reqID),
			zap.String("tenant", h.Config.TenantRef),
			zap.Error(err))
		snap = menu.BuildSnapshot(h.Config.TenantRef, h.Config.DefaultLang, nil)
	}

	tenant := h.Menus.Tenant(r.Context(), h.Config.TenantRef, h.Config.DefaultLang)
	engine := dialog.NewEngine(snap, h.Chat, tenant.Name, tenant.BaseLang)
	if h.Metrics != nil {
		engine.SetCallbacks(nil, func(source string, elapsedMs float64) {
			if source != "agent" {
				h.Metrics.DeterministicParseSeconds.Observe(elapsedMs / 1000)
			}
		})
	}

	coreCfg := live.DefaultSessionConfig()
	if h.Config.IdleTimeoutSec > 0 {
		coreCfg.Liveness.IdleSec = h.Config.IdleTimeoutSec
	}
	if h.Config.MaxIdlePrompts > 0 {
		coreCfg.Liveness.MaxPrompts = h.Config.MaxIdlePrompts
	}
	core := live.NewSession(coreCfg, h.STT, h.TTS, engine)

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	logger = logger.With(
		zap.String("session_id", core.SessionID()),
		zap.String("request_id", reqID),
	)

	host := session.New(h.sessionConfig(), conn, core, logger, h.Metrics, h.Telemetry)

	unregister, err := h.Tracker.Register(core.SessionID(), sessions.Handle{
		Cancel: host.Cancel,
		Warn:   host.Warn,
	})
	if err != nil {
		writeWSError(conn, "capacity", "session capacity reached")
		return
	}
	defer unregister()

	if err := host.Run(r.Context()); err != nil {
		logger.Warn("live session ended with error", zap.Error(err))
	}
}

func (h LiveHandler) sessionConfig() session.Config {
	return session.Config{
		MaxAudioFrameBytes:  h.Config.LiveMaxAudioFrameBytes,
		MaxJSONMessageBytes: h.Config.LiveMaxJSONMessageBytes,
		MaxAudioFPS:         h.Config.LiveMaxAudioFPS,
		MaxAudioBPS:         h.Config.LiveMaxAudioBytesPerSecond,
		InboundBurstSeconds: h.Config.LiveInboundBurstSeconds,
		PingInterval:        h.Config.LiveWSPingInterval,
		WriteTimeout:        h.Config.LiveWSWriteTimeout,
		HeartbeatInterval:   h.Config.LiveHeartbeatInterval,
		MaxSessionDuration:  h.Config.LiveMaxSessionDuration,
		DefaultLang:         h.Config.DefaultLang,
	}
}

// originAllowed mirrors the CORS middleware for the upgrade request. An
// absent Origin header means a non-browser client and is always allowed.
func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}

func writeWSError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(protocol.ServerError{
		Type:    protocol.TypeError,
		Code:    code,
		Message: message,
		Close:   true,
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(2*time.Second))
}
