// Package session bridges one websocket connection to one core live
// session. It owns the socket read loop, a single writer goroutine and the
// translation between core events and wire frames.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ordervox/ordervox/pkg/core/live"
	"github.com/ordervox/ordervox/pkg/gateway/live/protocol"
	"github.com/ordervox/ordervox/pkg/gateway/metrics"
	"github.com/ordervox/ordervox/pkg/gateway/telemetry"
)

// Config bounds one websocket session.
type Config struct {
	MaxAudioFrameBytes  int
	MaxJSONMessageBytes int64
	MaxAudioFPS         int
	MaxAudioBPS         int64
	InboundBurstSeconds int
	PingInterval        time.Duration
	WriteTimeout        time.Duration
	HeartbeatInterval   time.Duration
	MaxSessionDuration  time.Duration
	DefaultLang         string
}

// DefaultConfig returns the limits used when the gateway config leaves
// them unset. Caller audio at 16 kHz mono s16le is 32000 bytes per second;
// the byte budget leaves headroom for client-side batching.
func DefaultConfig() Config {
	return Config{
		MaxAudioFrameBytes:  32 * 1024,
		MaxJSONMessageBytes: 64 * 1024,
		MaxAudioFPS:         120,
		MaxAudioBPS:         96000,
		InboundBurstSeconds: 2,
		PingInterval:        20 * time.Second,
		WriteTimeout:        5 * time.Second,
		HeartbeatInterval:   10 * time.Second,
		MaxSessionDuration:  30 * time.Minute,
		DefaultLang:         "en",
	}
}

// Host runs the wire protocol for one live call.
type Host struct {
	cfg       Config
	conn      *websocket.Conn
	core      *live.Session
	logger    *zap.Logger
	metrics   *metrics.Metrics
	telemetry telemetry.Publisher

	priority chan outboundFrame
	normal   chan outboundFrame
	audioGen atomic.Uint64
	hbSeq    atomic.Int64
}

// New wires a host around an upgraded connection and a not-yet-started
// core session. m and pub may be nil.
func New(cfg Config, conn *websocket.Conn, core *live.Session, logger *zap.Logger, m *metrics.Metrics, pub telemetry.Publisher) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pub == nil {
		pub = telemetry.Nop{}
	}
	return &Host{
		cfg:       cfg,
		conn:      conn,
		core:      core,
		logger:    logger,
		metrics:   m,
		telemetry: pub,
		priority:  make(chan outboundFrame, 64),
		normal:    make(chan outboundFrame, 256),
	}
}

// Run drives the session until the core closes or the socket drops. It
// blocks for the lifetime of the call.
func (h *Host) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	if h.cfg.MaxSessionDuration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, h.cfg.MaxSessionDuration)
		defer cancelTimeout()
	}

	writer := &outboundWriter{
		ws:           h.conn,
		ctx:          ctx,
		pingInterval: h.cfg.PingInterval,
		writeTimeout: h.cfg.WriteTimeout,
		priority:     h.priority,
		normal:       h.normal,
		isStale: func(gen uint64) bool {
			return gen < h.audioGen.Load()
		},
	}
	writerErr := make(chan error, 1)
	go func() { writerErr <- writer.Run() }()

	if err := h.core.Start(ctx); err != nil {
		cancel()
		<-writerErr
		return err
	}

	go h.readLoop(ctx)
	go h.heartbeatLoop(ctx)

	h.pumpEvents(ctx)

	// The core has closed its event channel. Let the writer drain
	// priority frames and shut the socket.
	h.core.Close()
	cancel()

	select {
	case err := <-writerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Debug("writer exited", zap.Error(err))
		}
	case <-time.After(2 * time.Second):
		_ = h.conn.Close()
	}
	return nil
}

// readLoop consumes inbound frames until the socket errors or the context
// ends. Binary frames are caller audio, text frames are control messages.
func (h *Host) readLoop(ctx context.Context) {
	defer h.core.Close()

	if h.cfg.MaxJSONMessageBytes > 0 {
		h.conn.SetReadLimit(h.cfg.MaxJSONMessageBytes)
	}

	limiter := newInboundAudioLimiter(nil, h.cfg.MaxAudioFPS, h.cfg.MaxAudioBPS, h.cfg.InboundBurstSeconds)

	for {
		if ctx.Err() != nil {
			return
		}
		messageType, data, err := h.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("socket read failed", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			h.handleAudio(ctx, limiter, data)
		case websocket.TextMessage:
			h.handleControl(ctx, data)
		}
	}
}

func (h *Host) handleAudio(ctx context.Context, limiter *inboundAudioLimiter, data []byte) {
	if h.cfg.MaxAudioFrameBytes > 0 && len(data) > h.cfg.MaxAudioFrameBytes {
		h.sendError(ctx, "frame_too_large", "audio frame exceeds limit", false)
		return
	}
	if !limiter.Allow(len(data)) {
		if h.metrics != nil {
			h.metrics.InboundFramesDropped.Inc()
		}
		return
	}
	if err := h.core.SendAudio(data); err != nil {
		h.logger.Debug("audio frame dropped", zap.Error(err))
	}
}

func (h *Host) handleControl(ctx context.Context, data []byte) {
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		var decErr *protocol.DecodeError
		if errors.As(err, &decErr) {
			h.sendError(ctx, decErr.Code, decErr.Error(), false)
		} else {
			h.sendError(ctx, "bad_request", "invalid frame", false)
		}
		return
	}

	switch m := msg.(type) {
	case protocol.ClientBargeIn:
		h.core.BargeIn()
	case protocol.ClientEndCall:
		h.core.EndCall()
	case protocol.ClientHeartbeatAck:
		h.core.Heartbeat()
	case protocol.ClientSetLanguage:
		h.core.SetLanguage(m.Lang)
	}
}

// heartbeatLoop prompts the client to prove liveness. Acks feed the core
// supervisor through handleControl.
func (h *Host) heartbeatLoop(ctx context.Context) {
	interval := h.cfg.HeartbeatInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sendJSON(ctx, h.priority, protocol.ServerHeartbeat{
				Type: protocol.TypeHeartbeat,
				Seq:  int(h.hbSeq.Add(1)),
			})
		}
	}
}

// pumpEvents translates core events into wire frames. Returns when the
// core closes its event channel.
func (h *Host) pumpEvents(ctx context.Context) {
	ttsStarted := make(map[string]time.Time)

	for ev := range h.core.Events() {
		switch e := ev.(type) {
		case *live.SessionCreatedEvent:
			h.sendJSON(ctx, h.priority, protocol.ServerSessionReady{
				Type:         protocol.TypeSessionReady,
				SessionID:    e.SessionID,
				SampleRateHz: e.SampleRate,
				Channels:     e.Channels,
				Lang:         h.cfg.DefaultLang,
			})
			h.telemetry.Publish(telemetry.Event{
				Kind:      "session_started",
				SessionID: e.SessionID,
				Lang:      h.cfg.DefaultLang,
			})

		case *live.TurnFlushedEvent:
			h.sendJSON(ctx, h.priority, protocol.ServerThinking{
				Type:   protocol.TypeThinking,
				TurnID: e.TurnID,
			})

		case *live.TurnSupersededEvent:
			h.sendJSON(ctx, h.priority, protocol.ServerClearThinking{
				Type:   protocol.TypeClearThinking,
				TurnID: e.TurnID,
			})

		case *live.TranscriptFinalEvent:
			if h.metrics != nil {
				h.metrics.STTRequests.WithLabelValues("ok").Inc()
			}
			h.sendJSON(ctx, h.priority, protocol.ServerUserText{
				Type:    protocol.TypeUserText,
				TurnID:  e.TurnID,
				Text:    e.Transcript,
				Retried: e.Retried,
			})
			h.telemetry.Publish(telemetry.Event{
				Kind:      "user_turn",
				SessionID: h.core.SessionID(),
				TurnID:    e.TurnID,
				Text:      e.Transcript,
			})

		case *live.AgentReplyEvent:
			if h.metrics != nil {
				h.metrics.TurnsTotal.WithLabelValues(e.Source).Inc()
				if e.Source == "agent" {
					h.metrics.LLMFallbacks.Inc()
				}
			}
			h.sendJSON(ctx, h.priority, protocol.ServerAgentText{
				Type:   protocol.TypeAgentText,
				TurnID: e.TurnID,
				Text:   e.Text,
				Lang:   e.Lang,
				Source: e.Source,
			})
			h.telemetry.Publish(telemetry.Event{
				Kind:      "agent_reply",
				SessionID: h.core.SessionID(),
				TurnID:    e.TurnID,
				Route:     e.Source,
				Lang:      e.Lang,
				Text:      e.Text,
			})

		case *live.AudioDeltaEvent:
			if _, ok := ttsStarted[e.TurnID]; !ok {
				ttsStarted[e.TurnID] = time.Now()
			}
			h.sendAudio(e.Data)

		case *live.AudioDoneEvent:
			if started, ok := ttsStarted[e.TurnID]; ok {
				if h.metrics != nil {
					h.metrics.TTSStreamSeconds.Observe(time.Since(started).Seconds())
				}
				delete(ttsStarted, e.TurnID)
			}
			// Rides the normal channel so it lands after the audio itself.
			h.sendJSON(ctx, h.normal, protocol.ServerTTSEnd{
				Type:   protocol.TypeTTSEnd,
				TurnID: e.TurnID,
			})

		case *live.AudioFlushEvent:
			h.audioGen.Add(1)
			h.sendJSON(ctx, h.priority, protocol.ServerClearAudioQueue{
				Type:   protocol.TypeClearAudioQueue,
				Reason: "barge_in",
			})

		case *live.BargeInEvent:
			if h.metrics != nil {
				h.metrics.BargeIns.WithLabelValues(e.Source).Inc()
			}
			h.telemetry.Publish(telemetry.Event{
				Kind:      "barge_in",
				SessionID: h.core.SessionID(),
				Reason:    e.Source,
			})

		case *live.IdlePromptEvent:
			h.logger.Debug("idle prompt", zap.Int("seq", e.Seq))

		case *live.ErrorEvent:
			h.sendError(ctx, e.Code, e.Message, false)

		case *live.SessionClosedEvent:
			h.sendJSON(ctx, h.priority, protocol.ServerBye{
				Type:   protocol.TypeBye,
				Reason: e.Reason,
			})
			h.telemetry.Publish(telemetry.Event{
				Kind:      "session_closed",
				SessionID: h.core.SessionID(),
				Reason:    e.Reason,
			})

		case *live.DebugEvent:
			h.logger.Debug("core", zap.String("category", e.Category), zap.String("message", e.Message))
		}
	}
}

// Cancel force-closes the call from the server side.
func (h *Host) Cancel() {
	h.core.Close()
}

// Warn pushes an error frame at the client without blocking, used for
// drain notices.
func (h *Host) Warn(code, message string) error {
	data, err := json.Marshal(protocol.ServerError{
		Type:    protocol.TypeError,
		Code:    code,
		Message: message,
	})
	if err != nil {
		return err
	}
	select {
	case h.priority <- outboundFrame{textPayload: data}:
		return nil
	default:
		return errors.New("outbound queue full")
	}
}

func (h *Host) sendJSON(ctx context.Context, ch chan outboundFrame, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal outbound frame", zap.Error(err))
		return
	}
	select {
	case ch <- outboundFrame{textPayload: data}:
	case <-ctx.Done():
	}
}

// sendAudio never blocks: under backpressure audio is droppable, control
// frames are not.
func (h *Host) sendAudio(data []byte) {
	frame := outboundFrame{
		binaryPayload: data,
		isAudio:       true,
		audioGen:      h.audioGen.Load(),
	}
	select {
	case h.normal <- frame:
	default:
		h.logger.Debug("outbound audio dropped", zap.Int("bytes", len(data)))
	}
}

func (h *Host) sendError(ctx context.Context, code, message string, close bool) {
	h.sendJSON(ctx, h.priority, protocol.ServerError{
		Type:    protocol.TypeError,
		Code:    code,
		Message: message,
		Close:   close,
	})
}
