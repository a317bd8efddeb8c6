package speech

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// newBreaker returns the standard breaker shape for speech upstreams: open
// after five consecutive failures, probe again after thirty seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// BreakerChat wraps a ChatClient with a circuit breaker. The deterministic
// dialogue path never reaches this, so an open circuit only degrades the
// agent fallback.
type BreakerChat struct {
	inner ChatClient
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerChat wraps inner.
func NewBreakerChat(inner ChatClient) *BreakerChat {
	return &BreakerChat{inner: inner, cb: newBreaker("chat")}
}

// Complete delegates through the breaker. Context cancellation is not
// counted as an upstream failure; superseded turns must not open the
// circuit.
func (b *BreakerChat) Complete(ctx context.Context, system, user string) (string, error) {
	out, err := b.cb.Execute(func() (any, error) {
		reply, err := b.inner.Complete(ctx, system, user)
		if err != nil && ctx.Err() != nil {
			return "", nil
		}
		return reply, err
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return "", ErrUnavailable
	}
	if err != nil {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return out.(string), nil
}

// BreakerTTS wraps a TTSClient with a circuit breaker.
type BreakerTTS struct {
	inner TTSClient
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerTTS wraps inner.
func NewBreakerTTS(inner TTSClient) *BreakerTTS {
	return &BreakerTTS{inner: inner, cb: newBreaker("tts")}
}

// Speak delegates through the breaker. Context cancellation is not counted
// as an upstream failure.
func (b *BreakerTTS) Speak(ctx context.Context, text, lang string, emit func(chunk []byte) error) error {
	_, err := b.cb.Execute(func() (any, error) {
		err := b.inner.Speak(ctx, text, lang, emit)
		if err != nil && ctx.Err() != nil {
			// Cancelled mid-stream; report upward without tripping the breaker.
			return nil, nil
		}
		return nil, err
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return ErrUnavailable
	}
	if err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}
