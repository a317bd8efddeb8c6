// Package metrics holds the Prometheus instruments for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every instrument the gateway records. A single value is
// created at startup and threaded through the server wiring.
type Metrics struct {
	ActiveSessions            prometheus.Gauge
	TurnsTotal                *prometheus.CounterVec
	STTRequests               *prometheus.CounterVec
	LLMFallbacks              prometheus.Counter
	BargeIns                  *prometheus.CounterVec
	TTSStreamSeconds          prometheus.Histogram
	DeterministicParseSeconds prometheus.Histogram
	TelemetryPublishFailures  prometheus.Counter
	InboundFramesDropped      prometheus.Counter
}

// New registers all instruments against reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ordervox_active_sessions",
			Help: "Number of live voice sessions currently open.",
		}),
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordervox_turns_total",
			Help: "Completed caller turns by reply route.",
		}, []string{"route"}),
		STTRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordervox_stt_requests_total",
			Help: "Speech-to-text requests by result.",
		}, []string{"result"}),
		LLMFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_llm_fallback_total",
			Help: "Turns the deterministic router handed to the model.",
		}),
		BargeIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordervox_barge_ins_total",
			Help: "Agent speech interruptions by trigger source.",
		}, []string{"source"}),
		TTSStreamSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ordervox_tts_stream_seconds",
			Help:    "Wall time spent streaming one synthesized reply.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		DeterministicParseSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ordervox_deterministic_parse_seconds",
			Help:    "Latency of the deterministic utterance router.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		TelemetryPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_telemetry_publish_failures_total",
			Help: "Telemetry events that could not be published.",
		}),
		InboundFramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordervox_inbound_frames_dropped_total",
			Help: "Caller audio frames dropped by the inbound rate limiter.",
		}),
	}
}
