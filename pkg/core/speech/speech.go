// Package speech defines the upstream speech and language interfaces the
// session runtime depends on, plus the Gemini-backed implementation.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when an upstream is down or its circuit is open.
var ErrUnavailable = errors.New("speech: upstream unavailable")

// STTClient transcribes one utterance of PCM audio. langHint is a BCP-47-ish
// language code ("en", "nl") or empty for auto-detect.
type STTClient interface {
	Transcribe(ctx context.Context, pcm []byte, langHint string) (string, error)
}

// ChatClient produces the agent fallback completion.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// TTSClient synthesizes speech and streams audio chunks through emit.
// Implementations must stop promptly when ctx is cancelled.
type TTSClient interface {
	Speak(ctx context.Context, text, lang string, emit func(chunk []byte) error) error
}
