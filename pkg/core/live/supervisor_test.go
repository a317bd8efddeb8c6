package live

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestSupervisor(busy func() bool) (*LivenessSupervisor, *fakeClock) {
	l := NewLivenessSupervisor(DefaultLivenessConfig(), busy)
	clock := newFakeClock()
	l.now = clock.now
	l.connectedAt = clock.now()
	return l, clock
}

func TestLiveness_ClampsIdleFloor(t *testing.T) {
	cfg := DefaultLivenessConfig()
	cfg.IdleSec = 5
	l := NewLivenessSupervisor(cfg, nil)

	if l.config.IdleSec != MinIdleSec {
		t.Errorf("expected IdleSec clamped to %d, got %d", MinIdleSec, l.config.IdleSec)
	}
}

func TestLiveness_PromptsThenExpires(t *testing.T) {
	l, clock := newTestSupervisor(nil)

	var mu sync.Mutex
	var prompts []int
	expired := false
	l.SetCallbacks(
		func(seq int) {
			mu.Lock()
			defer mu.Unlock()
			prompts = append(prompts, seq)
		},
		func() {
			mu.Lock()
			defer mu.Unlock()
			expired = true
		},
		nil,
	)

	// Inside grace plus idle threshold: nothing yet
	clock.advance(20 * time.Second)
	l.check()

	mu.Lock()
	if len(prompts) != 0 {
		t.Fatalf("expected no prompts yet, got %v", prompts)
	}
	mu.Unlock()

	// Past grace + idle
	clock.advance(20 * time.Second)
	l.check()

	// The prompt resets the anchor, so an immediate re-check is quiet
	l.check()

	mu.Lock()
	if len(prompts) != 1 || prompts[0] != 1 {
		t.Fatalf("expected first prompt, got %v", prompts)
	}
	mu.Unlock()

	clock.advance(30 * time.Second)
	l.check()
	clock.advance(30 * time.Second)
	l.check()

	mu.Lock()
	defer mu.Unlock()
	if len(prompts) != 2 {
		t.Fatalf("expected two prompts before expiry, got %v", prompts)
	}
	if !expired {
		t.Error("expected expiry after unanswered prompts")
	}
}

func TestLiveness_UserSpeechResetsPrompts(t *testing.T) {
	l, clock := newTestSupervisor(nil)

	var mu sync.Mutex
	var prompts []int
	l.SetCallbacks(
		func(seq int) {
			mu.Lock()
			defer mu.Unlock()
			prompts = append(prompts, seq)
		},
		func() { t.Error("unexpected expiry") },
		nil,
	)

	clock.advance(40 * time.Second)
	l.check()

	l.NoteUserSpeechEnd()
	if l.Prompts() != 0 {
		t.Errorf("expected prompt counter reset, got %d", l.Prompts())
	}

	// Fresh anchor from the user turn keeps the line quiet
	clock.advance(10 * time.Second)
	l.check()

	mu.Lock()
	defer mu.Unlock()
	if len(prompts) != 1 {
		t.Fatalf("expected only the first prompt, got %v", prompts)
	}
}

func TestLiveness_BusySuppressesChecks(t *testing.T) {
	busy := true
	l, clock := newTestSupervisor(func() bool { return busy })

	fired := false
	l.SetCallbacks(func(int) { fired = true }, nil, nil)

	clock.advance(2 * time.Minute)
	l.check()
	if fired {
		t.Fatal("busy session must not be prompted")
	}

	busy = false
	l.check()
	if !fired {
		t.Fatal("expected prompt once no longer busy")
	}
}

func TestLiveness_HeartbeatMovesAnchor(t *testing.T) {
	l, clock := newTestSupervisor(nil)

	fired := false
	l.SetCallbacks(func(int) { fired = true }, nil, nil)

	clock.advance(35 * time.Second)
	l.NoteHeartbeat()
	clock.advance(10 * time.Second)
	l.check()

	if fired {
		t.Error("heartbeat should have kept the session alive")
	}
}
