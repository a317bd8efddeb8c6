package live

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ordervox/ordervox/pkg/core/dialog"
)

// STTClient transcribes one finished utterance.
type STTClient interface {
	// Transcribe converts PCM audio to text. langHint may be empty for
	// auto-detection.
	Transcribe(ctx context.Context, pcm []byte, langHint string) (string, error)
}

// TTSClient synthesizes speech and streams PCM chunks through emit.
type TTSClient interface {
	Speak(ctx context.Context, text, lang string, emit func([]byte) error) error
}

// TurnHandler produces the spoken reply for one finished user turn.
// dialog.Engine implements it.
type TurnHandler interface {
	Process(ctx context.Context, text string) (dialog.Reply, error)
	Language() string
	SetLanguage(lang string)
	Greeting() dialog.Reply
	IdlePrompt(n int) string
	Goodbye() string

	// Busy reports whether the dialogue is waiting on the caller, as with
	// an armed slot or a pending offer. Idle prompts are held back then.
	Busy() bool
}

// Session is the orchestrator for one live voice conversation. It wires the
// segmenter, turn assembler, barge-in coordinator, and liveness supervisor
// around the STT, dialog, and TTS pipeline.
//
// Turn handling is last-turn-wins: a new captured segment cancels any
// in-flight transcription or dialog work, and the superseded transcript is
// prepended to the next dispatched turn.
type Session struct {
	config SessionConfig

	stt     STTClient
	tts     TTSClient
	handler TurnHandler

	// Components
	segmenter *Segmenter
	assembler *TurnAssembler
	bargeIn   *BargeInCoordinator
	liveness  *LivenessSupervisor

	// State
	mu        sync.RWMutex
	state     SessionState
	sessionID string

	// In-flight turn
	turnMu        sync.Mutex
	turnCancel    context.CancelFunc
	currentTurnID string
	carryover     string

	// Channels
	events       chan Event
	eventsMu     sync.RWMutex
	eventsClosed bool
	audio        chan []byte
	done         chan struct{}
	closed       atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	debugEnabled bool
}

// NewSession creates a live session around the given pipeline.
func NewSession(config SessionConfig, stt STTClient, tts TTSClient, handler TurnHandler) *Session {
	return &Session{
		config:    config,
		stt:       stt,
		tts:       tts,
		handler:   handler,
		state:     StateConfiguring,
		sessionID: "live_" + uuid.NewString(),
		events:    make(chan Event, config.EventBuffer),
		audio:     make(chan []byte, 100),
		done:      make(chan struct{}),
	}
}

// EnableDebug enables debug event emission.
func (s *Session) EnableDebug() {
	s.debugEnabled = true
}

// SessionID returns the session identifier.
func (s *Session) SessionID() string {
	return s.sessionID
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Events returns the channel for receiving session events.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Start begins the live session and speaks the greeting.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConfiguring {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.initComponents()

	go s.audioLoop()
	s.liveness.Start(s.ctx)

	s.setState(StateListening)
	s.emit(&SessionCreatedEvent{
		SessionID:  s.sessionID,
		SampleRate: s.config.Audio.SampleRate,
		Channels:   s.config.Audio.Channels,
	})

	greeting := s.handler.Greeting()
	go func() {
		s.speakSystem("greeting", greeting.Text, greeting.Lang)
	}()

	return nil
}

func (s *Session) initComponents() {
	s.segmenter = NewSegmenter(s.config.Segmenter, s.config.Audio)
	s.segmenter.SetCallbacks(
		func(pcm []byte, durationMs int, forced bool) { s.onSegment(pcm, durationMs, forced) },
		func(category, message string) { s.debug(category, message) },
	)

	s.assembler = NewTurnAssembler(s.config.Assembler, s.config.Audio)
	s.assembler.SetCallbacks(
		func(turnID string, pcm []byte, durationMs int) { s.onTurnFlushed(turnID, pcm, durationMs) },
		func(heldBytes, graceMs int, expiresAt time.Time) {
			s.emit(&TurnHeldEvent{HeldBytes: heldBytes, GraceMs: graceMs, ExpiresAt: expiresAt})
		},
		func(category, message string) { s.debug(category, message) },
	)

	s.bargeIn = NewBargeInCoordinator(s.config.BargeIn)
	s.bargeIn.SetCallbacks(
		func(source string, rms float64) { s.onBargeIn(source, rms) },
		func(category, message string) { s.debug(category, message) },
	)

	s.liveness = NewLivenessSupervisor(s.config.Liveness, func() bool {
		return s.State() != StateListening || s.assembler.IsHolding() || s.segmenter.InSpeech() || s.handler.Busy()
	})
	s.liveness.SetCallbacks(
		func(seq int) { s.onIdlePrompt(seq) },
		func() { s.onIdleExpired() },
		func(category, message string) { s.debug(category, message) },
	)
}

// SendAudio queues inbound PCM for processing. Drops the chunk when the
// buffer is full rather than blocking the caller.
func (s *Session) SendAudio(data []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}

	select {
	case s.audio <- data:
		return nil
	case <-s.done:
		return fmt.Errorf("session closed")
	default:
		s.debug("AUDIO", "buffer full, dropping chunk")
		return nil
	}
}

// BargeIn handles a client-requested interruption of agent speech.
func (s *Session) BargeIn() {
	s.liveness.NoteActivity()
	s.bargeIn.TriggerClient()
}

// Heartbeat records a client heartbeat acknowledgement.
func (s *Session) Heartbeat() {
	s.liveness.NoteHeartbeat()
}

// SetLanguage forces the conversation language from a client control message.
func (s *Session) SetLanguage(lang string) {
	s.liveness.NoteActivity()
	s.handler.SetLanguage(lang)
	s.debug("SESSION", "language set to "+lang)
}

// EndCall says goodbye and closes the session at the client's request.
func (s *Session) EndCall() {
	if s.closed.Load() {
		return
	}
	s.speakSystem("bye", s.handler.Goodbye(), s.handler.Language())
	s.close("client_end")
}

// Close shuts down the session.
func (s *Session) Close() error {
	s.close("closed")
	return nil
}

func (s *Session) close(reason string) {
	if s.closed.Swap(true) {
		return
	}

	s.debug("SESSION", "closing: "+reason)

	if s.cancel != nil {
		s.cancel()
	}
	s.liveness.Stop()
	s.assembler.Cancel()

	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
	}
	s.turnMu.Unlock()

	s.setState(StateClosed)
	s.emit(&SessionClosedEvent{Reason: reason})
	close(s.done)

	s.eventsMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.eventsMu.Unlock()
}

// audioLoop processes inbound audio chunks.
func (s *Session) audioLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ctx.Done():
			return
		case data := <-s.audio:
			s.processAudio(data)
		}
	}
}

// processAudio routes one chunk based on the session state. While the agent
// is speaking, inbound audio is only inspected for barge-in energy; feeding
// it to the segmenter would re-capture playback echo.
func (s *Session) processAudio(data []byte) {
	switch s.State() {
	case StateListening, StateProcessing:
		s.segmenter.Feed(data)
	case StateSpeaking:
		s.bargeIn.CheckFrame(data)
	}
}

// onSegment is called when the segmenter closes an utterance.
func (s *Session) onSegment(pcm []byte, durationMs int, forced bool) {
	s.emit(&SegmentCapturedEvent{DurationMs: durationMs, Forced: forced})
	s.liveness.NoteUserSpeechEnd()

	// Last turn wins: a fresh segment supersedes in-flight work.
	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
		turnID := s.currentTurnID
		s.currentTurnID = ""
		s.turnMu.Unlock()
		s.emit(&TurnSupersededEvent{TurnID: turnID})
	} else {
		s.turnMu.Unlock()
	}

	s.assembler.Add(pcm)
}

// onTurnFlushed is called when the assembler releases a merged turn.
func (s *Session) onTurnFlushed(turnID string, pcm []byte, durationMs int) {
	s.emit(&TurnFlushedEvent{TurnID: turnID, DurationMs: durationMs})

	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.turnCancel = cancel
	s.currentTurnID = turnID
	s.turnMu.Unlock()

	s.setState(StateProcessing)
	go s.processTurn(ctx, turnID, pcm)
}

// processTurn runs STT, dialog, and TTS for one turn.
func (s *Session) processTurn(ctx context.Context, turnID string, pcm []byte) {
	lang := s.handler.Language()

	transcript, err := s.stt.Transcribe(ctx, pcm, lang)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.emit(&ErrorEvent{Code: "stt_error", Message: err.Error()})
		s.finishTurn(ctx, turnID)
		return
	}

	// A transcript that reads like the wrong language usually means the
	// recognizer locked onto the hint. Re-run once with auto-detect.
	retried := false
	if dialog.NeedsSTTRetry(lang, transcript) {
		s.debug("STT", "transcript looks mislocked, retrying with auto-detect")
		if second, err2 := s.stt.Transcribe(ctx, pcm, ""); err2 == nil && strings.TrimSpace(second) != "" {
			transcript = second
			retried = true
		}
	}
	transcript = strings.TrimSpace(transcript)

	// Prepend anything a superseded turn already heard.
	s.turnMu.Lock()
	if s.carryover != "" {
		if transcript != "" {
			transcript = s.carryover + " " + transcript
		} else {
			transcript = s.carryover
		}
		s.carryover = ""
	}
	s.turnMu.Unlock()

	if ctx.Err() != nil {
		s.storeCarryover(transcript)
		return
	}
	if transcript == "" {
		s.debug("STT", "empty transcript, back to listening")
		s.finishTurn(ctx, turnID)
		return
	}

	s.emit(&TranscriptFinalEvent{TurnID: turnID, Transcript: transcript, Retried: retried})

	reply, err := s.handler.Process(ctx, transcript)
	if err != nil {
		if ctx.Err() != nil {
			s.storeCarryover(transcript)
			return
		}
		s.emit(&ErrorEvent{Code: "dialog_error", Message: err.Error()})
		s.finishTurn(ctx, turnID)
		return
	}
	if ctx.Err() != nil {
		s.storeCarryover(transcript)
		return
	}

	s.emit(&AgentReplyEvent{TurnID: turnID, Text: reply.Text, Lang: reply.Lang, Source: reply.Source})
	s.speak(ctx, turnID, reply.Text, reply.Lang)

	if reply.EndCall && ctx.Err() == nil {
		s.close("completed")
		return
	}
	s.finishTurn(ctx, turnID)
}

// storeCarryover keeps a superseded transcript for the next dispatch.
func (s *Session) storeCarryover(transcript string) {
	if transcript == "" {
		return
	}
	s.turnMu.Lock()
	s.carryover = transcript
	s.turnMu.Unlock()
}

// finishTurn releases the turn slot and returns to listening.
func (s *Session) finishTurn(ctx context.Context, turnID string) {
	s.turnMu.Lock()
	if s.currentTurnID == turnID {
		s.turnCancel = nil
		s.currentTurnID = ""
	}
	s.turnMu.Unlock()

	if ctx.Err() == nil && !s.closed.Load() {
		s.setState(StateListening)
	}
}

// speak streams synthesized audio for one reply.
func (s *Session) speak(ctx context.Context, turnID, text, lang string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.setState(StateSpeaking)
	err := s.tts.Speak(ctx, text, lang, func(chunk []byte) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.emit(&AudioDeltaEvent{TurnID: turnID, Data: chunk})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.emit(&ErrorEvent{Code: "tts_error", Message: err.Error()})
		return
	}

	s.emit(&AudioDoneEvent{TurnID: turnID})
	s.liveness.NoteAgentSpeechEnd()
}

// speakSystem speaks non-turn output (greeting, idle prompts, goodbye)
// through the same cancellable slot so barge-in can cut it.
func (s *Session) speakSystem(label, text, lang string) {
	if s.closed.Load() {
		return
	}

	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.turnCancel = cancel
	s.currentTurnID = label
	s.turnMu.Unlock()

	s.speak(ctx, label, text, lang)
	s.finishTurn(ctx, label)
}

// onBargeIn cancels in-flight speech output. Dialog state is untouched;
// only the audio stream is cut.
func (s *Session) onBargeIn(source string, rms float64) {
	if s.State() != StateSpeaking {
		return
	}

	s.turnMu.Lock()
	if s.turnCancel != nil {
		s.turnCancel()
		s.turnCancel = nil
		s.currentTurnID = ""
	}
	s.turnMu.Unlock()

	s.emit(&BargeInEvent{Source: source, RMS: rms})
	s.emit(&AudioFlushEvent{})
	s.segmenter.Reset()
	s.setState(StateListening)
}

// onIdlePrompt is called by the liveness supervisor.
func (s *Session) onIdlePrompt(seq int) {
	text := s.handler.IdlePrompt(seq)
	s.emit(&IdlePromptEvent{Seq: seq, Text: text})
	s.speakSystem(fmt.Sprintf("idle_%d", seq), text, s.handler.Language())
}

// onIdleExpired ends the session after unanswered reprompts.
func (s *Session) onIdleExpired() {
	s.emit(&IdleExpiredEvent{})
	s.speakSystem("bye", s.handler.Goodbye(), s.handler.Language())
	s.close("idle_timeout")
}

// setState updates the session state and emits an event.
func (s *Session) setState(newState SessionState) {
	s.mu.Lock()
	oldState := s.state
	s.state = newState
	s.mu.Unlock()

	if oldState != newState {
		s.debug("SESSION", fmt.Sprintf("state %s -> %s", oldState, newState))
		s.emit(&StateChangedEvent{From: oldState, To: newState})
	}
}

// emit sends an event, dropping it when the channel is full.
func (s *Session) emit(event Event) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- event:
	default:
	}
}

// debug emits a debug event if debug mode is enabled.
func (s *Session) debug(category, message string) {
	if s.debugEnabled {
		s.emit(&DebugEvent{Category: category, Message: message})
	}
}
