package live

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TurnAssembler merges closely spaced utterance segments into one logical
// turn. Each captured segment is held for a grace window; if another segment
// arrives before the window closes, the audio is concatenated and the window
// restarts. Short holdings get the longer fragment window, since they are
// usually a speaker pausing mid-sentence.
type TurnAssembler struct {
	config AssemblerConfig
	audio  AudioConfig

	mu      sync.Mutex
	held    []byte
	holding bool
	timer   *time.Timer

	now func() time.Time

	// Callbacks
	onFlush func(turnID string, pcm []byte, durationMs int)
	onHeld  func(heldBytes, graceMs int, expiresAt time.Time)
	onDebug func(category, message string)
}

// NewTurnAssembler creates a turn assembler.
func NewTurnAssembler(config AssemblerConfig, audio AudioConfig) *TurnAssembler {
	return &TurnAssembler{
		config: config,
		audio:  audio,
		now:    time.Now,
	}
}

// SetCallbacks sets the event callbacks.
func (a *TurnAssembler) SetCallbacks(
	onFlush func(turnID string, pcm []byte, durationMs int),
	onHeld func(heldBytes, graceMs int, expiresAt time.Time),
	onDebug func(category, message string),
) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFlush = onFlush
	a.onHeld = onHeld
	a.onDebug = onDebug
}

// Add appends a captured segment and starts (or restarts) the merge window.
func (a *TurnAssembler) Add(pcm []byte) {
	a.mu.Lock()

	a.held = append(a.held, pcm...)

	graceMs := a.config.PauseMergeMs
	if len(a.held) <= a.config.FragmentMaxBytes {
		graceMs = a.config.PauseMergeFragmentMs
	}

	if a.timer != nil {
		a.timer.Stop()
	}
	a.holding = true
	a.timer = time.AfterFunc(time.Duration(graceMs)*time.Millisecond, a.expire)

	heldBytes := len(a.held)
	expiresAt := a.now().Add(time.Duration(graceMs) * time.Millisecond)
	onHeld := a.onHeld
	a.mu.Unlock()

	a.debug("TURN", fmt.Sprintf("holding %d bytes (%dms window)", heldBytes, graceMs))
	if onHeld != nil {
		onHeld(heldBytes, graceMs, expiresAt)
	}
}

// expire is called when the merge window closes without a follow-on segment.
func (a *TurnAssembler) expire() {
	a.mu.Lock()
	if !a.holding {
		a.mu.Unlock()
		return
	}
	a.flushLocked()
}

// ForceFlush releases the held audio immediately, bypassing the window.
func (a *TurnAssembler) ForceFlush() {
	a.mu.Lock()
	if !a.holding {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.flushLocked()
}

// flushLocked hands the held audio to onFlush. Drops the lock before the
// callback runs. Caller holds the lock.
func (a *TurnAssembler) flushLocked() {
	pcm := make([]byte, len(a.held))
	copy(pcm, a.held)
	a.held = a.held[:0]
	a.holding = false
	a.timer = nil
	onFlush := a.onFlush
	a.mu.Unlock()

	if len(pcm) == 0 || onFlush == nil {
		return
	}
	turnID := "turn_" + uuid.NewString()
	onFlush(turnID, pcm, a.audio.DurationMs(len(pcm)))
}

// Cancel drops the held audio and stops the window without flushing.
func (a *TurnAssembler) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.held = a.held[:0]
	a.holding = false
}

// IsHolding reports whether audio is waiting in the merge window.
func (a *TurnAssembler) IsHolding() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holding
}

// HeldBytes returns the current held-buffer size.
func (a *TurnAssembler) HeldBytes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}

func (a *TurnAssembler) debug(category, message string) {
	if a.onDebug != nil {
		go a.onDebug(category, message)
	}
}
