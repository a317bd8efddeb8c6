// Package server assembles the HTTP surface: health and readiness probes,
// the Prometheus scrape endpoint and the /v1/live websocket route.
package server

import (
	"context"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ordervox/ordervox/pkg/core/dialog"
	"github.com/ordervox/ordervox/pkg/core/live"
	"github.com/ordervox/ordervox/pkg/gateway/config"
	"github.com/ordervox/ordervox/pkg/gateway/handlers"
	"github.com/ordervox/ordervox/pkg/gateway/lifecycle"
	"github.com/ordervox/ordervox/pkg/gateway/live/sessions"
	"github.com/ordervox/ordervox/pkg/gateway/menustore"
	"github.com/ordervox/ordervox/pkg/gateway/metrics"
	"github.com/ordervox/ordervox/pkg/gateway/mw"
	"github.com/ordervox/ordervox/pkg/gateway/telemetry"
)

// Dependencies carries the externally-built clients the server wires into
// its handlers. NATS, Telemetry and Registry may be nil; an explicit
// Telemetry publisher wins over a NATS connection.
type Dependencies struct {
	Menus     *menustore.Store
	NATS      *nats.Conn
	Telemetry telemetry.Publisher
	Registry  *prometheus.Registry

	STT  live.STTClient
	TTS  live.TTSClient
	Chat dialog.ChatClient
}

type Server struct {
	cfg    config.Config
	logger *zap.Logger
	mux    *http.ServeMux

	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	telemetry telemetry.Publisher
	menus     *menustore.Store
	tracker   *sessions.Tracker
	lifecycle *lifecycle.Lifecycle

	stt  live.STTClient
	tts  live.TTSClient
	chat dialog.ChatClient
}

func New(cfg config.Config, logger *zap.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.New(registry)

	pub := deps.Telemetry
	if pub == nil && deps.NATS != nil {
		pub = telemetry.NewNATSPublisher(deps.NATS, cfg.TelemetrySubject, cfg.TelemetryTimeout, logger, m.TelemetryPublishFailures)
	}
	if pub == nil {
		pub = telemetry.Nop{}
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		registry:  registry,
		metrics:   m,
		telemetry: pub,
		menus:     deps.Menus,
		tracker:   sessions.NewTracker(cfg.LiveMaxSessions, m.ActiveSessions),
		lifecycle: &lifecycle.Lifecycle{},
		stt:       deps.STT,
		tts:       deps.TTS,
		chat:      deps.Chat,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{
		Config:    s.cfg,
		Lifecycle: s.lifecycle,
	})
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.Handle("/v1/live", handlers.LiveHandler{
		Config:    s.cfg,
		Logger:    s.logger,
		Metrics:   s.metrics,
		Telemetry: s.telemetry,
		Menus:     s.menus,
		Tracker:   s.tracker,
		Lifecycle: s.lifecycle,
		STT:       s.stt,
		TTS:       s.tts,
		Chat:      s.chat,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Tracker exposes the session tracker for shutdown coordination.
func (s *Server) Tracker() *sessions.Tracker {
	return s.tracker
}

// Drain flips readiness, warns open calls and waits for them to finish.
// Calls still open when ctx ends are force-closed.
func (s *Server) Drain(ctx context.Context) {
	s.lifecycle.SetDraining(true)

	open := s.tracker.Count()
	if open == 0 {
		return
	}
	s.logger.Info("draining live sessions", zap.Int("open", open))
	s.tracker.WarnAll("draining", "gateway is shutting down")

	if !s.tracker.Wait(ctx) {
		canceled := s.tracker.CancelAll()
		s.logger.Warn("drain deadline passed, sessions force-closed", zap.Int("canceled", canceled))
		s.tracker.Wait(context.Background())
	}
}
