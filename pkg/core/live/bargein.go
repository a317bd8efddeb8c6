package live

import (
	"fmt"
	"sync"
	"time"
)

// BargeInCoordinator decides when in-flight speech output should be cut.
// Two sources can trigger it: an explicit client control message, or loud
// inbound audio while the agent is speaking. Triggers are debounced so one
// shout does not fire twice.
type BargeInCoordinator struct {
	config BargeInConfig

	mu          sync.Mutex
	lastTrigger time.Time

	now func() time.Time

	// Callbacks
	onBargeIn func(source string, rms float64)
	onDebug   func(category, message string)
}

// NewBargeInCoordinator creates a barge-in coordinator.
func NewBargeInCoordinator(config BargeInConfig) *BargeInCoordinator {
	return &BargeInCoordinator{
		config: config,
		now:    time.Now,
	}
}

// SetCallbacks sets the event callbacks.
func (b *BargeInCoordinator) SetCallbacks(
	onBargeIn func(source string, rms float64),
	onDebug func(category, message string),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBargeIn = onBargeIn
	b.onDebug = onDebug
}

// CheckFrame inspects one inbound PCM frame while the agent is speaking.
// Returns true if the frame triggered a barge-in.
func (b *BargeInCoordinator) CheckFrame(pcm []byte) bool {
	if !b.config.Enabled {
		return false
	}
	rms := CalculateRMSRaw(pcm)
	if rms < b.config.RMSThreshold {
		return false
	}
	return b.trigger("energy", rms)
}

// TriggerClient fires a client-requested barge-in. Works even when
// energy-based detection is disabled.
func (b *BargeInCoordinator) TriggerClient() bool {
	return b.trigger("client", 0)
}

func (b *BargeInCoordinator) trigger(source string, rms float64) bool {
	b.mu.Lock()
	now := b.now()
	debounce := time.Duration(b.config.DebounceMs) * time.Millisecond
	if now.Sub(b.lastTrigger) < debounce {
		b.mu.Unlock()
		return false
	}
	b.lastTrigger = now
	onBargeIn := b.onBargeIn
	b.mu.Unlock()

	b.debug("BARGE", fmt.Sprintf("triggered by %s (rms=%.0f)", source, rms))
	if onBargeIn != nil {
		onBargeIn(source, rms)
	}
	return true
}

func (b *BargeInCoordinator) debug(category, message string) {
	if b.onDebug != nil {
		go b.onDebug(category, message)
	}
}
