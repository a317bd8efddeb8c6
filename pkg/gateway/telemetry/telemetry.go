// Package telemetry publishes session events to NATS for offline analysis.
//
// Publishing is fire-and-forget: a slow or absent broker must never stall a
// live call. Transcript text is redacted before it leaves the process.
package telemetry

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultSubject is the NATS subject session events are published on.
const DefaultSubject = "ordervox.telemetry.events"

// Event is one analytics record. Text fields must be redacted by the
// publisher before hitting the wire.
type Event struct {
	Kind       string    `json:"kind"`
	SessionID  string    `json:"session_id"`
	TurnID     string    `json:"turn_id,omitempty"`
	Route      string    `json:"route,omitempty"`
	Lang       string    `json:"lang,omitempty"`
	Text       string    `json:"text,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DurationMs int       `json:"duration_ms,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher sends events somewhere. Implementations must not block the
// caller beyond a small bounded timeout.
type Publisher interface {
	Publish(ev Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(Event) {}

// NATSPublisher publishes events as JSON on a single subject.
type NATSPublisher struct {
	conn     *nats.Conn
	subject  string
	timeout  time.Duration
	logger   *zap.Logger
	failures prometheus.Counter
}

// NewNATSPublisher wraps an established NATS connection. failures may be
// nil when no metrics registry is wired.
func NewNATSPublisher(conn *nats.Conn, subject string, timeout time.Duration, logger *zap.Logger, failures prometheus.Counter) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{
		conn:     conn,
		subject:  subject,
		timeout:  timeout,
		logger:   logger,
		failures: failures,
	}
}

// Publish redacts and sends one event. Errors are counted and logged, never
// returned.
func (p *NATSPublisher) Publish(ev Event) {
	if p == nil || p.conn == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ev.Text = Redact(ev.Text)

	data, err := json.Marshal(ev)
	if err != nil {
		p.fail("marshal telemetry event", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.fail("publish telemetry event", err)
		return
	}
	if err := p.conn.FlushTimeout(p.timeout); err != nil {
		p.fail("flush telemetry event", err)
	}
}

func (p *NATSPublisher) fail(msg string, err error) {
	if p.failures != nil {
		p.failures.Inc()
	}
	p.logger.Warn(msg, zap.Error(err))
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{6,}\d`)
	digitPattern = regexp.MustCompile(`\d{5,}`)
)

// redactedTextMax caps how much transcript survives redaction.
const redactedTextMax = 100

// Redact strips likely PII from transcript text and truncates long input.
// Emails, phone-shaped sequences and long digit runs are masked.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = emailPattern.ReplaceAllString(s, "[email]")
	s = phonePattern.ReplaceAllString(s, "[phone]")
	s = digitPattern.ReplaceAllString(s, "[digits]")

	if len(s) > redactedTextMax {
		head := strings.TrimSpace(s[:48])
		tail := strings.TrimSpace(s[len(s)-48:])
		s = head + " … " + tail
	}
	return s
}
