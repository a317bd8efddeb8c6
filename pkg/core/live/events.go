package live

import "time"

// Event is the interface for all live session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// SessionCreatedEvent is emitted when the session is started.
type SessionCreatedEvent struct {
	SessionID  string `json:"session_id"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

func (e *SessionCreatedEvent) EventType() string { return "session.created" }

// SessionClosedEvent is emitted when the session ends.
type SessionClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *SessionClosedEvent) EventType() string { return "session.closed" }

// StateChangedEvent is emitted when the session state changes.
type StateChangedEvent struct {
	From SessionState `json:"from"`
	To   SessionState `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// SegmentCapturedEvent is emitted when the segmenter closes an utterance.
type SegmentCapturedEvent struct {
	DurationMs int  `json:"duration_ms"`
	Forced     bool `json:"forced,omitempty"` // True when the max-length cap fired
}

func (e *SegmentCapturedEvent) EventType() string { return "segment.captured" }

// TurnHeldEvent is emitted when a segment enters the pause-merge window.
type TurnHeldEvent struct {
	HeldBytes int       `json:"held_bytes"`
	GraceMs   int       `json:"grace_ms"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e *TurnHeldEvent) EventType() string { return "turn.held" }

// TurnFlushedEvent is emitted when held audio is released as one turn.
type TurnFlushedEvent struct {
	TurnID     string `json:"turn_id"`
	DurationMs int    `json:"duration_ms"`
}

func (e *TurnFlushedEvent) EventType() string { return "turn.flushed" }

// TurnSupersededEvent is emitted when a new turn cancels in-flight work.
type TurnSupersededEvent struct {
	TurnID string `json:"turn_id"`
}

func (e *TurnSupersededEvent) EventType() string { return "turn.superseded" }

// TranscriptFinalEvent carries the finished transcript for one turn.
type TranscriptFinalEvent struct {
	TurnID     string `json:"turn_id"`
	Transcript string `json:"transcript"`
	Retried    bool   `json:"retried,omitempty"` // True when STT was re-run with auto-detect
}

func (e *TranscriptFinalEvent) EventType() string { return "transcript.final" }

// AgentReplyEvent carries the spoken reply text for one turn.
type AgentReplyEvent struct {
	TurnID string `json:"turn_id"`
	Text   string `json:"text"`
	Lang   string `json:"lang"`
	Source string `json:"source"`
}

func (e *AgentReplyEvent) EventType() string { return "agent.reply" }

// AudioDeltaEvent is emitted for synthesized audio chunks.
type AudioDeltaEvent struct {
	TurnID string `json:"turn_id"`
	Data   []byte `json:"data"`
}

func (e *AudioDeltaEvent) EventType() string { return "audio.delta" }

// AudioDoneEvent is emitted when all audio for a reply has been sent.
type AudioDoneEvent struct {
	TurnID string `json:"turn_id"`
}

func (e *AudioDoneEvent) EventType() string { return "audio.done" }

// AudioFlushEvent signals that all pending/buffered output audio should be
// discarded immediately. Clients clear their playback queues on this.
type AudioFlushEvent struct{}

func (e *AudioFlushEvent) EventType() string { return "audio.flush" }

// BargeInEvent is emitted when in-flight speech output is interrupted.
type BargeInEvent struct {
	Source string  `json:"source"` // "client" or "energy"
	RMS    float64 `json:"rms,omitempty"`
}

func (e *BargeInEvent) EventType() string { return "barge_in" }

// IdlePromptEvent is emitted when the liveness supervisor reprompts.
type IdlePromptEvent struct {
	Seq  int    `json:"seq"`
	Text string `json:"text"`
}

func (e *IdlePromptEvent) EventType() string { return "idle.prompt" }

// IdleExpiredEvent is emitted when reprompts went unanswered and the
// session is ending.
type IdleExpiredEvent struct{}

func (e *IdleExpiredEvent) EventType() string { return "idle.expired" }

// ErrorEvent is emitted when an error occurs.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }

// DebugEvent is emitted for debugging information.
type DebugEvent struct {
	Category string `json:"category"` // AUDIO, SEG, TURN, STT, DIALOG, TTS, BARGE, LIVENESS, SESSION
	Message  string `json:"message"`
}

func (e *DebugEvent) EventType() string { return "debug" }
