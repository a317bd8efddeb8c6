package session

import (
	"testing"
	"time"
)

type limiterClock struct {
	t time.Time
}

func (c *limiterClock) now() time.Time          { return c.t }
func (c *limiterClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestInboundLimiter_NilAllowsEverything(t *testing.T) {
	l := newInboundAudioLimiter(nil, 0, 0, 1)
	if l != nil {
		t.Fatal("expected nil limiter when both limits are off")
	}
	if !l.Allow(1 << 20) {
		t.Error("nil limiter must allow")
	}
}

func TestInboundLimiter_FramesPerSecond(t *testing.T) {
	clock := &limiterClock{t: time.Unix(1000, 0)}
	l := newInboundAudioLimiter(clock.now, 2, 0, 1)

	if !l.Allow(100) || !l.Allow(100) {
		t.Fatal("burst frames should pass")
	}
	if l.Allow(100) {
		t.Fatal("third frame in the same second should be denied")
	}

	clock.advance(time.Second)
	if !l.Allow(100) {
		t.Fatal("refilled frame should pass")
	}
}

func TestInboundLimiter_BytesPerSecond(t *testing.T) {
	clock := &limiterClock{t: time.Unix(1000, 0)}
	l := newInboundAudioLimiter(clock.now, 0, 1000, 1)

	if !l.Allow(800) {
		t.Fatal("first frame within byte budget should pass")
	}
	if l.Allow(800) {
		t.Fatal("frame over the remaining byte budget should be denied")
	}
	if !l.Allow(200) {
		t.Fatal("frame within the remaining budget should pass")
	}

	clock.advance(500 * time.Millisecond)
	if !l.Allow(400) {
		t.Fatal("partially refilled budget should cover a small frame")
	}
}

func TestInboundLimiter_BurstCap(t *testing.T) {
	clock := &limiterClock{t: time.Unix(1000, 0)}
	l := newInboundAudioLimiter(clock.now, 1, 0, 2)

	if !l.Allow(0) || !l.Allow(0) {
		t.Fatal("two-second burst should allow two frames")
	}
	if l.Allow(0) {
		t.Fatal("burst exhausted")
	}

	// A long quiet stretch must not accumulate beyond the burst cap.
	clock.advance(time.Minute)
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow(0) {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("expected burst cap of 2 after idle, got %d", allowed)
	}
}
