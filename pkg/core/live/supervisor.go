package live

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LivenessSupervisor watches for dead air. It anchors idleness on the most
// recent of: last user speech end, last agent speech end, last client
// activity, last heartbeat ack, and connect time plus grace. When the line
// has been quiet past the idle threshold it asks the session to reprompt;
// after too many unanswered prompts it declares the session expired.
type LivenessSupervisor struct {
	config LivenessConfig

	mu            sync.Mutex
	connectedAt   time.Time
	lastUserEnd   time.Time
	lastAgentEnd  time.Time
	lastActivity  time.Time
	lastHeartbeat time.Time
	lastPrompt    time.Time
	prompts       int
	expired       bool

	now  func() time.Time
	busy func() bool

	stopOnce sync.Once
	stop     chan struct{}

	// Callbacks
	onPrompt func(seq int)
	onExpire func()
	onDebug  func(category, message string)
}

// NewLivenessSupervisor creates a supervisor. IdleSec below the floor is
// clamped.
func NewLivenessSupervisor(config LivenessConfig, busy func() bool) *LivenessSupervisor {
	if config.IdleSec < MinIdleSec {
		config.IdleSec = MinIdleSec
	}
	return &LivenessSupervisor{
		config: config,
		now:    time.Now,
		busy:   busy,
		stop:   make(chan struct{}),
	}
}

// SetCallbacks sets the event callbacks.
func (l *LivenessSupervisor) SetCallbacks(
	onPrompt func(seq int),
	onExpire func(),
	onDebug func(category, message string),
) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onPrompt = onPrompt
	l.onExpire = onExpire
	l.onDebug = onDebug
}

// Start launches the check loop. The connect grace window begins now.
func (l *LivenessSupervisor) Start(ctx context.Context) {
	l.mu.Lock()
	l.connectedAt = l.now()
	l.mu.Unlock()

	go l.loop(ctx)
}

// Stop halts the check loop.
func (l *LivenessSupervisor) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *LivenessSupervisor) loop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(l.config.CheckIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.check()
		}
	}
}

// NoteUserSpeechEnd records the end of a user utterance.
func (l *LivenessSupervisor) NoteUserSpeechEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastUserEnd = l.now()
	l.prompts = 0
}

// NoteAgentSpeechEnd records the end of synthesized output.
func (l *LivenessSupervisor) NoteAgentSpeechEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastAgentEnd = l.now()
}

// NoteActivity records any client interaction other than speech.
func (l *LivenessSupervisor) NoteActivity() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.now()
}

// NoteHeartbeat records a heartbeat acknowledgement.
func (l *LivenessSupervisor) NoteHeartbeat() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastHeartbeat = l.now()
}

func (l *LivenessSupervisor) check() {
	if l.busy != nil && l.busy() {
		return
	}

	l.mu.Lock()
	if l.expired {
		l.mu.Unlock()
		return
	}

	anchor := l.connectedAt.Add(time.Duration(l.config.ConnectGraceSec) * time.Second)
	for _, t := range []time.Time{l.lastUserEnd, l.lastAgentEnd, l.lastActivity, l.lastHeartbeat, l.lastPrompt} {
		if t.After(anchor) {
			anchor = t
		}
	}

	idle := l.now().Sub(anchor)
	if idle < time.Duration(l.config.IdleSec)*time.Second {
		l.mu.Unlock()
		return
	}

	if l.prompts >= l.config.MaxPrompts {
		l.expired = true
		onExpire := l.onExpire
		l.mu.Unlock()

		l.debug("LIVENESS", "idle prompts exhausted, expiring")
		if onExpire != nil {
			onExpire()
		}
		return
	}

	l.prompts++
	seq := l.prompts
	l.lastPrompt = l.now()
	onPrompt := l.onPrompt
	l.mu.Unlock()

	l.debug("LIVENESS", fmt.Sprintf("idle %ds, prompt %d", int(idle.Seconds()), seq))
	if onPrompt != nil {
		onPrompt(seq)
	}
}

// Prompts returns how many unanswered idle prompts have been issued.
func (l *LivenessSupervisor) Prompts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prompts
}

func (l *LivenessSupervisor) debug(category, message string) {
	if l.onDebug != nil {
		go l.onDebug(category, message)
	}
}
