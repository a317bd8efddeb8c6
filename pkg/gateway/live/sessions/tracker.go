// Package sessions tracks open live calls for capacity limits and
// graceful drain.
package sessions

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrCapacity is returned when the gateway is at its session limit.
var ErrCapacity = errors.New("session capacity reached")

// Handle lets the tracker reach into a running call.
type Handle struct {
	Cancel func()
	Warn   func(code, message string) error
}

// Tracker counts live calls, enforces an optional capacity limit and
// keeps an active-session gauge current.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*trackedSession
	wg       sync.WaitGroup
	capacity int
	gauge    prometheus.Gauge
}

type trackedSession struct {
	handle Handle
	once   sync.Once
}

// NewTracker builds a tracker. capacity <= 0 means unlimited; gauge may
// be nil.
func NewTracker(capacity int, gauge prometheus.Gauge) *Tracker {
	return &Tracker{
		sessions: make(map[string]*trackedSession),
		capacity: capacity,
		gauge:    gauge,
	}
}

// Register adds a call. It fails with ErrCapacity when the limit is hit.
// Re-registering an id cancels and replaces the old entry.
func (t *Tracker) Register(sessionID string, h Handle) (unregister func(), err error) {
	if t == nil {
		return func() {}, nil
	}

	entry := &trackedSession{handle: h}

	t.mu.Lock()
	if t.sessions == nil {
		t.sessions = make(map[string]*trackedSession)
	}
	old := t.sessions[sessionID]
	if old == nil && t.capacity > 0 && len(t.sessions) >= t.capacity {
		t.mu.Unlock()
		return nil, ErrCapacity
	}
	t.sessions[sessionID] = entry
	t.wg.Add(1)
	if t.gauge != nil {
		t.gauge.Set(float64(len(t.sessions)))
	}
	t.mu.Unlock()

	if old != nil {
		if old.handle.Cancel != nil {
			old.handle.Cancel()
		}
		t.unregister(sessionID, old)
	}

	return func() { t.unregister(sessionID, entry) }, nil
}

func (t *Tracker) unregister(sessionID string, entry *trackedSession) {
	if t == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		t.mu.Lock()
		if t.sessions != nil && t.sessions[sessionID] == entry {
			delete(t.sessions, sessionID)
		}
		if t.gauge != nil {
			t.gauge.Set(float64(len(t.sessions)))
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

// Count reports the number of open calls.
func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// WarnAll sends a drain notice to every open call.
func (t *Tracker) WarnAll(code, message string) (sent int) {
	if t == nil {
		return 0
	}

	var warns []func(code, message string) error
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.Warn == nil {
			continue
		}
		warns = append(warns, entry.handle.Warn)
	}
	t.mu.Unlock()

	for _, warn := range warns {
		_ = warn(code, message)
		sent++
	}
	return sent
}

// CancelAll force-closes every open call.
func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, entry := range t.sessions {
		if entry == nil || entry.handle.Cancel == nil {
			continue
		}
		cancels = append(cancels, entry.handle.Cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every call has unregistered or ctx ends. It reports
// whether the drain completed.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
