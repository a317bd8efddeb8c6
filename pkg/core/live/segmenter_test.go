package live

import (
	"sync"
	"testing"
)

func testSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		FrameMs:             20,
		EnergyFloor:         0.01,
		SpeechConfirmFrames: 3,
		PrerollMs:           40,
		MinUtteranceMs:      100,
		SilenceEndMs:        60,
		MaxUtteranceMs:      400,
		StartupIgnoreMs:     0,
	}
}

// makeFrame builds one 20ms PCM frame at the given amplitude.
func makeFrame(cfg AudioConfig, amplitude int16) []byte {
	frame := make([]byte, cfg.BytesForDurationMs(20))
	for i := 0; i < len(frame)-1; i += 2 {
		frame[i] = byte(amplitude & 0xFF)
		frame[i+1] = byte((amplitude >> 8) & 0xFF)
	}
	return frame
}

type segmentRecorder struct {
	mu       sync.Mutex
	segments [][]byte
	durs     []int
	forced   []bool
}

func (r *segmentRecorder) record(pcm []byte, durationMs int, forced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, pcm)
	r.durs = append(r.durs, durationMs)
	r.forced = append(r.forced, forced)
}

func (r *segmentRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segments)
}

func TestSegmenter_EmitsOnTrailingSilence(t *testing.T) {
	audio := DefaultAudioConfig()
	seg := NewSegmenter(testSegmenterConfig(), audio)

	rec := &segmentRecorder{}
	seg.SetCallbacks(rec.record, nil)

	speech := makeFrame(audio, 8000)
	silence := makeFrame(audio, 0)

	// 5 speech frames (100ms) then 3 silence frames (60ms)
	for i := 0; i < 5; i++ {
		seg.Feed(speech)
	}
	for i := 0; i < 3; i++ {
		seg.Feed(silence)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 segment, got %d", rec.count())
	}
	if rec.durs[0] != 160 {
		t.Errorf("expected 160ms duration, got %d", rec.durs[0])
	}
	if rec.forced[0] {
		t.Error("silence-end segment should not be forced")
	}
	if seg.InSpeech() {
		t.Error("expected gate to return to idle after emit")
	}
}

func TestSegmenter_DiscardsShortUtterance(t *testing.T) {
	audio := DefaultAudioConfig()
	seg := NewSegmenter(testSegmenterConfig(), audio)

	rec := &segmentRecorder{}
	seg.SetCallbacks(rec.record, nil)

	speech := makeFrame(audio, 8000)
	silence := makeFrame(audio, 0)

	// Only 60ms of speech, below the 100ms minimum
	for i := 0; i < 3; i++ {
		seg.Feed(speech)
	}
	for i := 0; i < 3; i++ {
		seg.Feed(silence)
	}

	if rec.count() != 0 {
		t.Fatalf("expected short utterance to be discarded, got %d segments", rec.count())
	}
	if seg.InSpeech() {
		t.Error("expected gate to return to idle after discard")
	}
}

func TestSegmenter_ForceClosesAtMaxLength(t *testing.T) {
	audio := DefaultAudioConfig()
	seg := NewSegmenter(testSegmenterConfig(), audio)

	rec := &segmentRecorder{}
	seg.SetCallbacks(rec.record, nil)

	speech := makeFrame(audio, 8000)
	for i := 0; i < 25; i++ {
		seg.Feed(speech)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 forced segment, got %d", rec.count())
	}
	if !rec.forced[0] {
		t.Error("max-length segment should be marked forced")
	}
	if rec.durs[0] != 400 {
		t.Errorf("expected 400ms duration, got %d", rec.durs[0])
	}
}

func TestSegmenter_FalseStartReturnsToIdle(t *testing.T) {
	audio := DefaultAudioConfig()
	seg := NewSegmenter(testSegmenterConfig(), audio)

	rec := &segmentRecorder{}
	seg.SetCallbacks(rec.record, nil)

	speech := makeFrame(audio, 8000)
	silence := makeFrame(audio, 0)

	// 2 speech frames, below the 3-frame confirmation
	seg.Feed(speech)
	seg.Feed(speech)
	seg.Feed(silence)

	if seg.InSpeech() {
		t.Error("unconfirmed speech should not open an utterance")
	}
	if rec.count() != 0 {
		t.Errorf("expected no segments, got %d", rec.count())
	}
}

func TestSegmenter_PrependsPreroll(t *testing.T) {
	audio := DefaultAudioConfig()
	seg := NewSegmenter(testSegmenterConfig(), audio)

	rec := &segmentRecorder{}
	seg.SetCallbacks(rec.record, nil)

	speech := makeFrame(audio, 8000)
	silence := makeFrame(audio, 0)

	// Fill the pre-roll with quiet frames first
	for i := 0; i < 4; i++ {
		seg.Feed(silence)
	}
	for i := 0; i < 5; i++ {
		seg.Feed(speech)
	}
	for i := 0; i < 3; i++ {
		seg.Feed(silence)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 segment, got %d", rec.count())
	}

	// 8 fed frames plus up to 40ms of pre-roll
	frameBytes := audio.BytesForDurationMs(20)
	prerollBytes := audio.BytesForDurationMs(40)
	if got := len(rec.segments[0]); got != 8*frameBytes+prerollBytes {
		t.Errorf("expected %d bytes with pre-roll, got %d", 8*frameBytes+prerollBytes, got)
	}
}

func TestSegmenter_StartupMute(t *testing.T) {
	audio := DefaultAudioConfig()
	cfg := testSegmenterConfig()
	cfg.StartupIgnoreMs = 60000
	seg := NewSegmenter(cfg, audio)

	rec := &segmentRecorder{}
	seg.SetCallbacks(rec.record, nil)

	speech := makeFrame(audio, 8000)
	for i := 0; i < 10; i++ {
		seg.Feed(speech)
	}

	if seg.InSpeech() || rec.count() != 0 {
		t.Error("frames inside the startup mute window should be ignored")
	}
}
