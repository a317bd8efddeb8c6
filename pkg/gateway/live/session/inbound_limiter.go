package session

import "time"

// tokenBucket is a nanosecond-resolution refill bucket.
type tokenBucket struct {
	rate   int64
	tokens int64
	max    int64
}

func newTokenBucket(rate, burstSeconds int64) tokenBucket {
	b := tokenBucket{rate: rate}
	if rate > 0 {
		b.max = rate * burstSeconds
		b.tokens = b.max
	}
	return b
}

func (b *tokenBucket) refill(elapsed time.Duration) {
	if b.rate <= 0 {
		return
	}
	add := (elapsed.Nanoseconds() * b.rate) / int64(time.Second)
	if add <= 0 {
		return
	}
	b.tokens += add
	if b.tokens > b.max {
		b.tokens = b.max
	}
}

// inboundAudioLimiter bounds caller audio by frames per second and bytes
// per second. A nil limiter allows everything.
type inboundAudioLimiter struct {
	now        func() time.Time
	frames     tokenBucket
	bytes      tokenBucket
	lastRefill time.Time
}

func newInboundAudioLimiter(now func() time.Time, fps int, bps int64, burstSeconds int) *inboundAudioLimiter {
	if fps <= 0 && bps <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if burstSeconds <= 0 {
		burstSeconds = 1
	}

	return &inboundAudioLimiter{
		now:        now,
		frames:     newTokenBucket(int64(fps), int64(burstSeconds)),
		bytes:      newTokenBucket(bps, int64(burstSeconds)),
		lastRefill: now(),
	}
}

// Allow reports whether one frame of frameBytes may pass, consuming budget
// when it does.
func (l *inboundAudioLimiter) Allow(frameBytes int) bool {
	if l == nil {
		return true
	}
	l.refill()

	if frameBytes < 0 {
		frameBytes = 0
	}
	if l.frames.rate > 0 && l.frames.tokens < 1 {
		return false
	}
	if l.bytes.rate > 0 && l.bytes.tokens < int64(frameBytes) {
		return false
	}
	if l.frames.rate > 0 {
		l.frames.tokens--
	}
	if l.bytes.rate > 0 {
		l.bytes.tokens -= int64(frameBytes)
	}
	return true
}

func (l *inboundAudioLimiter) refill() {
	now := l.now()
	if l.lastRefill.IsZero() {
		l.lastRefill = now
		return
	}
	elapsed := now.Sub(l.lastRefill)
	if elapsed <= 0 {
		return
	}
	l.frames.refill(elapsed)
	l.bytes.refill(elapsed)
	l.lastRefill = now
}
